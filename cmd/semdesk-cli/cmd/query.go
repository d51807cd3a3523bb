package cmd

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sureshkumar/semdesk/internal/config"
)

type queryResult struct {
	id, loc, text string
	score         float32
}

func newQueryCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>",
		Short: "Ask a question against the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sock, err := resolveSocket(*socketPath)
			if err != nil {
				return err
			}
			return runQuery(cmd, sock, strings.Join(args, " "))
		},
	}
}

func resolveSocket(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return config.SocketPath()
}

// runQuery sends query over the socket and prints the results sorted by
// descending score, matching the original client's Commands::Query handler.
func runQuery(cmd *cobra.Command, socketPath, query string) error {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to semdesk server at %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(query)); err != nil {
		return fmt.Errorf("send query: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	results, err := readResults(conn)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })

	out := cmd.OutOrStdout()
	color := isatty.IsTerminal(os.Stdout.Fd())
	fmt.Fprintln(out, "Results:")
	for _, r := range results {
		printResult(out, color, r)
	}
	return nil
}

func readResults(conn net.Conn) ([]queryResult, error) {
	var results []queryResult
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "|", 4)
		if len(fields) != 4 {
			continue
		}
		score, err := strconv.ParseFloat(fields[3], 32)
		if err != nil {
			continue
		}
		results = append(results, queryResult{id: fields[0], loc: fields[1], text: fields[2], score: float32(score)})
	}
	return results, scanner.Err()
}

func printResult(out interface{ Write([]byte) (int, error) }, color bool, r queryResult) {
	if color {
		fmt.Fprintf(out, "\x1b[1mFile: %s\x1b[0m\n", r.loc)
	} else {
		fmt.Fprintf(out, "File: %s\n", r.loc)
	}
	fmt.Fprintf(out, "Match Probability: %.2f%%\n", r.score*100)
	fmt.Fprintf(out, "%s\n\n", r.text)
}
