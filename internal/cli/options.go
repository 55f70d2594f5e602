package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"docsift/internal/config"
	"docsift/internal/storage"
)

func newOptionsCommand() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Inspect or clear persisted preferences",
		Long: `Inspect or clear a persisted preferences record. Every browser session
stores its record under its own profile, the session id the server logs when
the session starts.`,
	}
	cmd.PersistentFlags().StringVar(&profile, "profile", "", "Profile (session id) to operate on")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective preferences of a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := profileStore(cmd, profile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			record, ok, err := config.ReadRecord(store)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(out, dimStyle.Render("no saved preferences, defaults apply"))
				return nil
			}
			if v := record.Version(); v != config.Version {
				_, _ = fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf(
					"stale preferences (version %d, current %d): discarded on next load", v, config.Version)))
				return nil
			}

			opts, missing, err := config.Decode(record)
			if err != nil {
				return err
			}
			effective, err := config.Encode(opts)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprint(out, renderTable(fmt.Sprintf("Preferences (version %d)", config.Version), optionRows(effective, missing)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted preferences of a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := profileStore(cmd, profile)
			if err != nil {
				return err
			}
			if err := config.Reset(store); err != nil {
				return err
			}
			getLogger(cmd.Context()).Info("preferences reset", "profile", profile)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "preferences cleared")
			return nil
		},
	})

	return cmd
}

func profileStore(cmd *cobra.Command, profile string) (storage.Store, error) {
	cfg := getConfig(cmd.Context())
	disk, err := storage.NewDiskStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}
	return storage.WithPrefix(disk, profile), nil
}

func optionRows(record config.Record, missing []string) []row {
	isMissing := make(map[string]bool, len(missing))
	for _, key := range missing {
		isMissing[key] = true
	}

	keys := make([]string, 0, len(record))
	for key := range record {
		if key != "version" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	rows := make([]row, 0, len(keys))
	for _, key := range keys {
		value := "null"
		if v := record[key]; v != nil {
			value = fmt.Sprint(v)
		}
		if isMissing[key] {
			value += " (default)"
		}
		rows = append(rows, row{key: key, value: value, dim: isMissing[key]})
	}
	return rows
}
