package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docsift/internal/catalog"
	"docsift/internal/domain"
	"docsift/internal/server"
	"docsift/internal/state"
	"docsift/internal/urlsync"
)

func newURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <url-or-query>",
		Short: "Decode a search link",
		Long: `Decode a search link (a full URL or just its query string) into search
criteria, resolve its index selection against the catalog, and print the
canonical form of the link.`,
		Example: `  docsift url 'http://localhost:8090/?q=report&sort=random'
  docsift url 'q=invoice&i=a&m=a:pdf'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())

			query, err := parseLink(args[0])
			if err != nil {
				return err
			}

			st := state.NewAppState(nil)
			sync := urlsync.New(urlsync.WithLogger(logger))
			sync.LoadFromArgs(st, query)

			c, err := catalog.Load(cfg.Catalog)
			switch {
			case err == nil:
			case errors.Is(err, fs.ErrNotExist):
				logger.Debug("no catalog, index ids stay unresolved", "path", cfg.Catalog)
				c = &catalog.Catalog{}
			default:
				return err
			}
			c.Apply(st)
			st.SetSelectedMimeTypes(st.OnLoadSelectedMimeTypes())
			st.SetSelectedTags(st.OnLoadSelectedTags())

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprint(out, renderTable("Search criteria", criteriaRows(st)))
			if len(c.Indices) == 0 && len(st.OnLoadSelectedIndices()) > 0 {
				_, _ = fmt.Fprintln(out, warnStyle.Render("catalog unavailable: "+strings.Join(st.OnLoadSelectedIndices(), ", ")+" not resolved"))
			}
			_, _ = fmt.Fprintln(out, linkStyle.Render(server.Location(urlsync.SearchViewPath, urlsync.EncodeArgs(st))))
			return nil
		},
	}
}

// parseLink accepts a full URL, a path with a query, or a bare query string
func parseLink(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	query, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", raw, err)
	}
	return query, nil
}

func criteriaRows(st *state.AppState) []row {
	rows := []row{
		textRow("query", st.SearchText()),
		{key: "fuzzy", value: strconv.FormatBool(st.Fuzzy())},
		textRow("path", st.PathText()),
		dateRow("date from", st.DateMin()),
		dateRow("date to", st.DateMax()),
		intRow("size from", st.SizeMin()),
		intRow("size to", st.SizeMax()),
	}

	names := make([]string, 0, len(st.SelectedIndices()))
	for _, idx := range st.SelectedIndices() {
		names = append(names, fmt.Sprintf("%s (%s)", idx.Name, idx.HexID()))
	}
	rows = append(rows,
		listRow("indices", names),
		listRow("mime types", st.SelectedMimeTypes()),
		listRow("tags", st.SelectedTags()),
		row{key: "sort", value: string(st.SortMode())},
	)
	if st.SortMode() == domain.SortRandom {
		rows = append(rows, row{key: "seed", value: strconv.FormatInt(st.Seed(), 10)})
	}
	return rows
}

func textRow(key, v string) row {
	if v == "" {
		return row{key: key, value: "none", dim: true}
	}
	return row{key: key, value: v}
}

func listRow(key string, v []string) row {
	if len(v) == 0 {
		return row{key: key, value: "any", dim: true}
	}
	return row{key: key, value: strings.Join(v, ", ")}
}

func intRow(key string, v *int64) row {
	if v == nil {
		return row{key: key, value: "unbounded", dim: true}
	}
	return row{key: key, value: strconv.FormatInt(*v, 10)}
}

func dateRow(key string, v *int64) row {
	if v == nil {
		return row{key: key, value: "unbounded", dim: true}
	}
	return row{key: key, value: time.Unix(*v, 0).UTC().Format("2006-01-02")}
}
