////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
// The binary is a developer harness: it runs the conversation engine against
// a seeded in-memory feed (or a real user api when --api is set) so the
// engine can be exercised without the mobile app.
package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	clover "github.com/ostafen/clover"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ekv"

	"github.com/Yanlry/smartcities-frontend-sub000/conversations"
	"github.com/Yanlry/smartcities-frontend-sub000/event"
	"github.com/Yanlry/smartcities-frontend-sub000/feed"
	"github.com/Yanlry/smartcities-frontend-sub000/messages"
	"github.com/Yanlry/smartcities-frontend-sub000/storage/archive"
	"github.com/Yanlry/smartcities-frontend-sub000/storage/versioned"
	"github.com/Yanlry/smartcities-frontend-sub000/users"
)

const storagePrefix = "smartcities"

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "convsync",
	Short: "Runs the conversation sync engine against a seeded feed",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		profileOut := viper.GetString("profile-cpu")
		if profileOut != "" {
			f, err := os.Create(profileOut)
			if err != nil {
				jww.FATAL.Panicf("%+v", err)
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		initLog(viper.GetUint("logLevel"), viper.GetString("log"))

		userID := viper.GetInt64("userid")
		session := viper.GetString("session")

		data, err := ekv.NewFilestore(
			filepath.Join(session, "archive"), viper.GetString("password"))
		if err != nil {
			jww.FATAL.Panicf("Failed to open archive storage: %+v", err)
		}

		db, err := clover.Open(filepath.Join(session, "messages"))
		if err != nil {
			jww.FATAL.Panicf("Failed to open message store: %+v", err)
		}
		defer db.Close()

		msgStore, err := messages.NewStore(db)
		if err != nil {
			jww.FATAL.Panicf("Failed to init message store: %+v", err)
		}

		evts := event.NewManager()
		evtStop, _ := evts.EventService()
		defer evtStop.Close()
		evts.RegisterEventCallback("cli",
			func(priority int, category, evtType, details string) {
				jww.INFO.Printf("Event(%d) %s/%s: %s",
					priority, category, evtType, details)
			})

		memFeed := feed.NewMemoryFeed()
		seedFixtures(memFeed, msgStore, userID)

		cache := users.NewCache(
			detailLookup(), viper.GetDuration("detailTTL"))

		params := conversations.GetDefaultParams()
		if bs := viper.GetInt("batchSize"); bs > 0 {
			params.EnrichmentBatchSize = bs
		}

		listener := conversations.NewListener(
			userID, memFeed, cache, msgStore, evts, params)
		agg := conversations.NewAggregator(userID, listener,
			archive.NewStore(storagePrefix, versioned.NewKV(data)),
			askToArchive, evts, params)

		err = agg.Start(printPartitions, func(err error) {
			jww.ERROR.Printf("Feed failed: %+v", err)
		})
		if err != nil {
			jww.FATAL.Panicf("Failed to start aggregator: %+v", err)
		}
		defer agg.Stop()

		if target := viper.GetString("archive"); target != "" {
			agg.Archive(target)
		}
		if target := viper.GetString("recover"); target != "" {
			agg.Recover(target)
		}

		// Let debounced writes and event dispatch drain before exit
		time.Sleep(viper.GetDuration("waitTimeout"))
	},
}

// printPartitions renders both views whenever the engine publishes.
func printPartitions(visible, archived []conversations.Conversation) {
	fmt.Printf("Visible (%d):\n", len(visible))
	for _, c := range visible {
		printConversation(c)
	}
	fmt.Printf("Archived (%d):\n", len(archived))
	for _, c := range archived {
		printConversation(c)
	}
}

func printConversation(c conversations.Conversation) {
	ts := "-"
	if c.LastMessageTimestamp != nil {
		ts = c.LastMessageTimestamp.Format(time.RFC3339)
	}
	fmt.Printf("  %s  %-20s  unread=%d  %s  %q\n",
		c.ID, c.OtherParticipantName, c.UnreadCount, ts, c.LastMessage)
}

// askToArchive is the interactive confirmation gate for the archive action.
func askToArchive(conversationID string) bool {
	if viper.GetBool("yes") {
		return true
	}
	for {
		fmt.Printf("Archive conversation %s? (yes/no) ", conversationID)
		var input string
		fmt.Scanln(&input)
		if input == "yes" {
			return true
		}
		if input == "no" {
			return false
		}
		fmt.Printf("Please answer 'yes' or 'no'\n")
	}
}

func initLog(threshold uint, logPath string) {
	if logPath != "-" && logPath != "" {
		// Disable stdout output
		jww.SetStdoutOutput(ioutil.Discard)
		// Use log file
		logOutput, err := os.OpenFile(logPath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err.Error())
		}
		jww.SetLogOutput(logOutput)
	}

	if threshold > 1 {
		jww.INFO.Printf("log level set to: TRACE")
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else if threshold == 1 {
		jww.INFO.Printf("log level set to: DEBUG")
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		jww.INFO.Printf("log level set to: INFO")
		jww.SetStdoutThreshold(jww.LevelInfo)
		jww.SetLogThreshold(jww.LevelInfo)
	}
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	rootCmd.PersistentFlags().UintP("logLevel", "v", 0,
		"Verbose mode for debugging")
	viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("logLevel"))

	rootCmd.PersistentFlags().StringP("log", "l", "-",
		"Path to the log output path (- is stdout)")
	viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.PersistentFlags().StringP("session", "s", "session",
		"Sets the storage directory for engine data")
	viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))

	rootCmd.PersistentFlags().StringP("password", "p", "",
		"Password for the archive storage files")
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))

	rootCmd.Flags().Int64("userid", 10,
		"User id the engine runs for")
	viper.BindPFlag("userid", rootCmd.Flags().Lookup("userid"))

	rootCmd.Flags().String("api", "",
		"Base url of the user detail api; fixtures are used when empty")
	viper.BindPFlag("api", rootCmd.Flags().Lookup("api"))

	rootCmd.Flags().Int("apiRate", 10,
		"Max user detail requests per second")
	viper.BindPFlag("apiRate", rootCmd.Flags().Lookup("apiRate"))

	rootCmd.Flags().Duration("detailTTL", users.DefaultDetailTTL,
		"How long participant details are cached (0 is forever)")
	viper.BindPFlag("detailTTL", rootCmd.Flags().Lookup("detailTTL"))

	rootCmd.Flags().Int("batchSize", 0,
		"Override the enrichment batch size")
	viper.BindPFlag("batchSize", rootCmd.Flags().Lookup("batchSize"))

	rootCmd.Flags().String("archive", "",
		"Archive this conversation id after the initial snapshot")
	viper.BindPFlag("archive", rootCmd.Flags().Lookup("archive"))

	rootCmd.Flags().String("recover", "",
		"Recover this conversation id after the initial snapshot")
	viper.BindPFlag("recover", rootCmd.Flags().Lookup("recover"))

	rootCmd.Flags().BoolP("yes", "y", false,
		"Skip the archive confirmation prompt")
	viper.BindPFlag("yes", rootCmd.Flags().Lookup("yes"))

	rootCmd.Flags().Duration("waitTimeout", time.Second,
		"How long to wait before exiting")
	viper.BindPFlag("waitTimeout", rootCmd.Flags().Lookup("waitTimeout"))

	rootCmd.Flags().String("profile-cpu", "",
		"Enable cpu profiling to this file")
	viper.BindPFlag("profile-cpu", rootCmd.Flags().Lookup("profile-cpu"))
}
