package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/services/guard"
	"go.uber.org/zap"
)

func newReplayCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay session and route changes through the route guard",
		Long: `replay reads one observation per line from stdin, in the form

    <loading|unauthenticated|authenticated> <path>

and prints every navigation the route guard issues. Repeated observations
produce no navigation. Blank lines and lines starting with # are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := guard.DefaultPolicy()
			if file != "" {
				loaded, err := guard.LoadPolicy(file)
				if err != nil {
					return err
				}
				policy = loaded
			}
			return replay(cmd.Context(), policy, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML policy file to replay against")
	return cmd
}

// replay feeds the observations in r to a Guard and writes one line per
// navigation to w.
func replay(ctx context.Context, policy guard.Policy, r io.Reader, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	nav := guard.NavigatorFunc(func(path string) {
		fmt.Fprintf(w, "replace %s\n", path)
	})
	g := guard.NewGuard(policy, nav, zap.NewNop())

	snapshots := make(chan guard.Snapshot)
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, snapshots) }()

	scanner := bufio.NewScanner(r)
	line := 0
	var parseErr error
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		snap, err := parseObservation(text)
		if err != nil {
			parseErr = fmt.Errorf("line %d: %w", line, err)
			break
		}
		select {
		case snapshots <- snap:
			continue
		case <-ctx.Done():
		}
		break
	}
	close(snapshots)

	if err := <-done; err != nil {
		return err
	}
	if parseErr != nil {
		return parseErr
	}
	return scanner.Err()
}

// replayUser stands in for the signed-in user; the guard only compares ids
var replayUser = models.NewUser("replay", "", models.RoleExplorer)

func parseObservation(text string) (guard.Snapshot, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return guard.Snapshot{}, fmt.Errorf("expected \"<status> <path>\", got %q", text)
	}

	var state guard.AuthState
	switch fields[0] {
	case guard.StatusLoading.String():
		state = guard.Loading()
	case guard.StatusUnauthenticated.String():
		state = guard.Unauthenticated()
	case guard.StatusAuthenticated.String():
		state = guard.Authenticated(replayUser)
	default:
		return guard.Snapshot{}, fmt.Errorf("unknown status %q", fields[0])
	}

	return guard.Snapshot{Auth: state, Group: guard.RouteGroup(fields[1])}, nil
}
