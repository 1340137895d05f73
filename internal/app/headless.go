package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/backend"
	"github.com/atomicstack/keyspace-browser/internal/format/table"
	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/theme"
)

// ListDatabases writes one row per database with its approximate key count.
func ListDatabases(ctx context.Context, cfg Config, w io.Writer) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	dbs, err := sess.store.Databases(ctx)
	if err != nil {
		return errors.WithMessage(err, "listing databases")
	}
	counts, err := backend.FetchKeyCounts(ctx, sess.store)
	if err != nil {
		return errors.WithMessage(err, "counting keys")
	}
	byIndex := make(map[int]backend.KeyCount, len(counts))
	for _, c := range counts {
		byIndex[c.Index] = c
	}

	rows := [][]string{{"INDEX", "NAME", "KEYS"}}
	for _, db := range dbs {
		keys := "?"
		if c, ok := byIndex[db.Index]; ok && c.Err == nil {
			keys = humanize.Comma(int64(c.Count))
		}
		rows = append(rows, []string{strconv.Itoa(db.Index), db.String(), keys})
	}
	for _, line := range table.Format(rows, []table.Alignment{table.AlignRight, table.AlignLeft, table.AlignRight}) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// PrintTree loads database index without a terminal and writes its key tree,
// one node per line, indented by depth.
func PrintTree(ctx context.Context, cfg Config, index int, w io.Writer) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	db, err := findDatabase(ctx, sess.store, index)
	if err != nil {
		return err
	}

	loop := keytree.NewLoop(cfg.Workers)
	node := keytree.NewDatabaseNode(keytree.DatabaseConfig{
		Name:       db.String(),
		Index:      db.Index,
		Operations: sess.accessor,
		Executor:   loop,
		Context:    ctx,
	})
	node.SetFilter(sess.filter)
	loop.Post(node.EnsureLoaded)
	if err := loop.RunUntilIdle(ctx); err != nil {
		return err
	}
	loop.Wait()
	if err := node.LastError(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s (%s keys)\n", node.Name(), humanize.Comma(int64(node.LoadedKeys()))); err != nil {
		return err
	}
	styles := theme.Default()
	var werr error
	keytree.Walk(node, func(n keytree.Node, depth int) bool {
		if depth == 0 || werr != nil {
			return werr == nil
		}
		name := n.DisplayName()
		if glyph := styles.Glyph(n.Icon()); glyph != "" {
			name = glyph + " " + name
		}
		_, werr = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth-1), name)
		return werr == nil
	})
	return werr
}

func findDatabase(ctx context.Context, store keystore.Store, index int) (keystore.Database, error) {
	dbs, err := store.Databases(ctx)
	if err != nil {
		return keystore.Database{}, errors.WithMessage(err, "listing databases")
	}
	for _, db := range dbs {
		if db.Index == index {
			return db, nil
		}
	}
	return keystore.Database{}, keystore.UnknownDatabase(index)
}
