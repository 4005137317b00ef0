package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gazra/gazra/backend/go-services/internal/auth"
	"github.com/gazra/gazra/backend/go-services/internal/collection"
	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/gazra/gazra/backend/go-services/internal/site"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type opener func(ctx context.Context) (docstore.Store, func(), error)

// cli carries the store opened by the root command's pre-run hook.
type cli struct {
	open    opener
	store   docstore.Store
	closeFn func()
}

// newRootCmd builds the command tree. The returned func releases the store
// the command opened and must run after Execute, whether or not it failed.
func newRootCmd(open opener) (*cobra.Command, func()) {
	a := &cli{open: open}
	root := &cobra.Command{
		Use:           "gazractl",
		Short:         "Inspect and seed the Gazra site collections",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open document store: %w", err)
			}
			a.store, a.closeFn = store, closeFn
			return nil
		},
	}
	root.AddCommand(a.listCmd(), a.getCmd(), a.deleteCmd(), a.seedCmd(), a.exportCmd(), hashPasswordCmd())
	return root, a.close
}

func (a *cli) close() {
	if a.closeFn != nil {
		a.closeFn()
		a.closeFn = nil
	}
}

// hashPasswordCmd prints a bcrypt hash for ADMIN_PASSWORD_HASH. The password
// is read from stdin unless given as an argument.
func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for the back-office admin password",
		Args:  cobra.MaximumNArgs(1),
		// no document store needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (a *cli) collection(name string) (*collection.Collection, error) {
	if _, ok := site.Lookup(name); !ok {
		return nil, fmt.Errorf("unknown collection %q (known: %s)", name, strings.Join(site.Names(), ", "))
	}
	return collection.New(a.store, name)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (a *cli) listCmd() *cobra.Command {
	var (
		wheres  []string
		orderBy string
		desc    bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			var filters []docstore.Filter
			for _, w := range wheres {
				f, err := collection.ParseWhere(w)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			}
			if orderBy != "" {
				dir := docstore.Asc
				if desc {
					dir = docstore.Desc
				}
				filters = append(filters, docstore.OrderBy(orderBy, dir))
			}
			if limit >= 0 {
				filters = append(filters, docstore.Limit(limit))
			}
			res := col.List(cmd.Context(), filters...)
			if err := res.Err(); err != nil {
				return err
			}
			if orderBy == "" {
				site.NewestFirst(res.Data)
			}
			return writeYAML(cmd.OutOrStdout(), res.Data)
		},
	}
	cmd.Flags().StringArrayVar(&wheres, "where", nil, `filter such as "status==pending" (repeatable)`)
	cmd.Flags().StringVar(&orderBy, "order-by", "", "field to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&limit, "limit", -1, "maximum number of records")
	return cmd
}

func (a *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			res := col.GetOne(cmd.Context(), args[1])
			if err := res.Err(); err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), res.Data)
		},
	}
}

func (a *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := a.collection(args[0])
			if err != nil {
				return err
			}
			if err := col.Delete(cmd.Context(), args[1]).Err(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

// seedFile maps collection names to the records to create in them.
type seedFile map[string][]collection.Record

func (a *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create records from a YAML file keyed by collection name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var seed seedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			// check every name before writing anything
			cols := make(map[string]*collection.Collection, len(seed))
			for name := range seed {
				col, err := a.collection(name)
				if err != nil {
					return err
				}
				cols[name] = col
			}
			for _, name := range site.Names() {
				col, ok := cols[name]
				if !ok {
					continue
				}
				for _, rec := range seed[name] {
					res := col.Create(cmd.Context(), rec)
					if err := res.Err(); err != nil {
						return fmt.Errorf("seed %s: %w", name, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d created\n", name, len(seed[name]))
			}
			return nil
		},
	}
}

func (a *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [collection...]",
		Short: "Write collections as YAML in the seed file format",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = site.Names()
			}
			out := seedFile{}
			for _, name := range names {
				col, err := a.collection(name)
				if err != nil {
					return err
				}
				res := col.List(cmd.Context(), docstore.OrderBy(collection.FieldCreatedAt, docstore.Asc))
				if err := res.Err(); err != nil {
					return fmt.Errorf("export %s: %w", name, err)
				}
				if len(res.Data) > 0 {
					out[name] = res.Data
				}
			}
			return writeYAML(cmd.OutOrStdout(), out)
		},
	}
}
