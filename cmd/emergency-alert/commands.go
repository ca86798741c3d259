package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-emergency-alerts/internal/clock"
	"github.com/mr1hm/go-emergency-alerts/internal/emergency"
	"github.com/mr1hm/go-emergency-alerts/internal/firstaid"
	"github.com/mr1hm/go-emergency-alerts/internal/geo"
)

// addDistanceCmd adds a 'distance' subcommand printing the great-circle
// distance between two coordinates.
func addDistanceCmd(rootCmd *cobra.Command) {
	distanceCmd := &cobra.Command{
		Use:   "distance <lat1> <lng1> <lat2> <lng2>",
		Short: "Print the distance between two coordinates",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q: %w", a, err)
				}
				v[i] = f
			}

			meters := geo.CalculateDistance(v[0], v[1], v[2], v[3])
			cmd.Println(geo.FormatDistance(meters))
			return nil
		},
	}

	rootCmd.AddCommand(distanceCmd)
}

// terminalDisplay renders a CPR timer as lines of text.
type terminalDisplay struct {
	cmd  *cobra.Command
	done chan struct{}
}

func (d *terminalDisplay) ShowTimer(title, body string) string {
	d.cmd.Println(fmt.Sprintf("%s - %s", title, body))
	return "cpr"
}

func (d *terminalDisplay) Update(id, title, body string) bool {
	d.cmd.Println(fmt.Sprintf("%s - %s", title, body))
	return true
}

func (d *terminalDisplay) Remove(id string) bool {
	close(d.done)
	return true
}

// addCPRCmd adds a 'cpr' subcommand running the CPR timer in the terminal.
func addCPRCmd(rootCmd *cobra.Command) {
	var (
		seconds int
		cueTTL  time.Duration
	)

	cprCmd := &cobra.Command{
		Use:   "cpr",
		Short: "Run a CPR compression timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			d := &terminalDisplay{cmd: cmd, done: make(chan struct{})}
			firstaid.Start(d, clock.Real{}, seconds, cueTTL)

			select {
			case <-d.done:
				cmd.Println("CPR timer finished.")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	cprCmd.Flags().IntVarP(&seconds, "duration", "d", firstaid.DefaultDuration, "Compression period in seconds")
	cprCmd.Flags().DurationVar(&cueTTL, "cue", 3*time.Second, "How long the rescue breaths cue stays up")

	rootCmd.AddCommand(cprCmd)
}

// addCallCmd adds a 'call' subcommand resolving an emergency service choice.
func addCallCmd(rootCmd *cobra.Command) {
	callCmd := &cobra.Command{
		Use:   "call [choice]",
		Short: "Choose an emergency service to call",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			} else {
				cmd.Println(emergency.Prompt())
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				input = strings.TrimSpace(line)
			}

			choice := emergency.Choose(input)
			if choice.Service == nil {
				cmd.Println(choice.Listing)
				return nil
			}
			cmd.Println(fmt.Sprintf("Calling %s: %s", choice.Service.Name, choice.DialURI))
			return nil
		},
	}

	rootCmd.AddCommand(callCmd)
}
