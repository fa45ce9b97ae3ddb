////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package users

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/thedevsaddam/gojsonq"
	"go.uber.org/ratelimit"
)

const lookupTimeout = 10 * time.Second

// Lookup resolves a participant id to a Detail. A nil Detail with a nil error
// means the participant does not exist; an error means the lookup itself
// failed and the result must not be cached as absence.
type Lookup interface {
	LookupUser(participantID int64) (*Detail, error)
}

// RESTLookup fetches participant details from GET {baseURL}/users/{id}. The
// endpoint is idempotent and side-effect-free, so requests are retried only
// by the caller recomputing on the next snapshot. Outbound calls share a rate
// limiter to keep large snapshots from hammering the backend.
type RESTLookup struct {
	baseURL string
	client  *http.Client
	rl      ratelimit.Limiter
}

// NewRESTLookup creates a lookup against the given api base url, limited to
// maxPerSecond outbound requests.
func NewRESTLookup(baseURL string, maxPerSecond int) *RESTLookup {
	return &RESTLookup{
		baseURL: baseURL,
		client:  &http.Client{Timeout: lookupTimeout},
		rl:      ratelimit.New(maxPerSecond, ratelimit.WithoutSlack),
	}
}

// LookupUser performs the REST fetch and derives the display detail.
func (r *RESTLookup) LookupUser(participantID int64) (*Detail, error) {
	r.rl.Take()

	url := fmt.Sprintf("%s/users/%d", r.baseURL, participantID)
	resp, err := r.client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "user lookup request failed for %d",
			participantID)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The participant is gone; this is an answer, not a failure
		jww.DEBUG.Printf("[UD] User %d not found", participantID)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("user lookup for %d returned status %d",
			participantID, resp.StatusCode)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read user lookup body "+
			"for %d", participantID)
	}

	return deriveDetail(parseRecord(string(body))), nil
}

// parseRecord pulls the fields used for display-name derivation out of the
// response. Absent or mistyped fields read as zero values; the profile photo
// url is nested under profilePhoto.url.
func parseRecord(body string) record {
	return record{
		Username:    jsonString(body, "username"),
		FirstName:   jsonString(body, "firstName"),
		LastName:    jsonString(body, "lastName"),
		UseFullName: jsonBool(body, "useFullName"),
		PhotoURL:    jsonString(body, "profilePhoto.url"),
	}
}

func jsonString(body, path string) string {
	if s, ok := gojsonq.New().FromString(body).Find(path).(string); ok {
		return s
	}
	return ""
}

func jsonBool(body, path string) bool {
	if b, ok := gojsonq.New().FromString(body).Find(path).(bool); ok {
		return b
	}
	return false
}
