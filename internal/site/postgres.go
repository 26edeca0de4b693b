package site

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// optionNames are the rows PostgresSource reads from the options table.
var optionNames = []string{
	"blogname", "siteurl", "admin_email", "db_version_label", "site_language", "blog_charset",
	"stylesheet_url", "multisite", "active_plugins", "active_sitewide_plugins",
	"mu_plugins", "upload_path", "space_used",
}

// PostgresSource reads options from the host's key/value options table.
// Values not present in the table fall back to Defaults.
type PostgresSource struct {
	DB       *sql.DB
	Table    string
	Defaults Options
}

func NewPostgresSource(db *sql.DB, table string, defaults Options) *PostgresSource {
	if table == "" {
		table = "options"
	}
	return &PostgresSource{DB: db, Table: table, Defaults: defaults}
}

func (s *PostgresSource) Load(ctx context.Context) (Options, error) {
	query := fmt.Sprintf("SELECT option_name, option_value FROM %s WHERE option_name = ANY($1)",
		pq.QuoteIdentifier(s.Table))

	rows, err := s.DB.QueryContext(ctx, query, pq.Array(optionNames))
	if err != nil {
		return Options{}, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	raw := make(map[string]string, len(optionNames))
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Options{}, fmt.Errorf("scan option: %w", err)
		}
		raw[name] = value
	}
	if err := rows.Err(); err != nil {
		return Options{}, fmt.Errorf("iterate options: %w", err)
	}

	opts := Options{
		Name:          raw["blogname"],
		URL:           raw["siteurl"],
		AdminEmail:    raw["admin_email"],
		Version:       raw["db_version_label"],
		Language:      raw["site_language"],
		Charset:       raw["blog_charset"],
		StylesheetURL: raw["stylesheet_url"],
		UploadsDir:    raw["upload_path"],
	}
	opts.Multisite, _ = strconv.ParseBool(raw["multisite"])
	opts.ActivePlugins = decodeList(raw["active_plugins"])
	opts.NetworkPlugins = decodeList(raw["active_sitewide_plugins"])
	if v, ok := raw["mu_plugins"]; ok {
		opts.MustUsePlugins = decodeList(v)
		if opts.MustUsePlugins == nil {
			opts.MustUsePlugins = []string{}
		}
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw["space_used"]), 64); err == nil && v >= 0 {
		opts.SpaceUsedMB = &v
	}

	return opts.Overlay(s.Defaults), nil
}

// decodeList accepts a JSON array, a JSON object (keys are the entries, as the
// network plugin list is stored) or a comma separated string.
func decodeList(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(v), &list); err == nil {
		return list
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(v), &keyed); err == nil {
		out := make([]string, 0, len(keyed))
		for k := range keyed {
			out = append(out, k)
		}
		return out
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
