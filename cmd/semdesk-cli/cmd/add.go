package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sureshkumar/semdesk/internal/catalog"
	"github.com/sureshkumar/semdesk/internal/docparser"
	"github.com/sureshkumar/semdesk/internal/embedder"
	"github.com/sureshkumar/semdesk/internal/indexer"
	"github.com/sureshkumar/semdesk/internal/vectorindex"
)

// newAddCmd builds a throwaway catalog and indexer, adds a single file to
// them directly, and waits for the user to press Enter before exiting. It
// does not talk to a running semdesk server — there is no add-over-socket
// protocol — so nothing it indexes survives past this process. It exists
// purely to exercise the Indexer's chunk/embed/store path against a real
// file from the command line, matching the original client's own
// test-only AddDocument command.
func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Index a single file into a scratch, in-process index (for testing only, not the running server)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args[0])
		},
	}
}

func runAdd(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "warning: this command is only for testing; it does not reach a running semdesk server")

	dir, err := os.MkdirTemp("", "semdesk-cli-add-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	cat, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		return fmt.Errorf("open scratch catalog: %w", err)
	}
	defer cat.Close()

	emb := embedder.NewStatic()
	store := vectorindex.New(emb.Dimensions())

	addCh := make(chan indexer.AddDocumentRequest, 1)
	readCh := make(chan indexer.RetrieveDocumentRequest, 1)
	indexPath := filepath.Join(dir, "index.bin")
	ix := indexer.New(emb, store, cat, indexPath, addCh, readCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ix.Run(ctx) }()

	text, err := docparser.Parse(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	reply := ix.AddDocument(ctx, text, path)
	if reply.Err != nil {
		return fmt.Errorf("index %s: %w", path, reply.Err)
	}
	fmt.Fprintf(out, "indexed %s as %d chunk(s): %v\n", path, len(reply.IDs), reply.IDs)

	fmt.Fprintln(out, "press enter to exit")
	_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return nil
}
