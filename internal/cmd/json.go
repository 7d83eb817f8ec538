package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/qq1060656096/dropguard/guard"
)

// ErrInvalidJSON 表示输入文档或赋值表达式不合法。
var ErrInvalidJSON = errors.New("dropguard.cmd: invalid json")

func newJSONCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Edit a guarded JSON document; the finalizer prints the result",
		Long: `json applies each --set path=value to a guarded document. When the guard
is closed the final document is printed. On error, or with --dry-run, the
guard is cancelled so nothing is printed by the finalizer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd, map[string]string{"json.doc": "doc"}); err != nil {
				return err
			}
			sets, err := cmd.Flags().GetStringArray("set")
			if err != nil {
				return err
			}
			dryRun, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				return err
			}
			return a.runJSON(sets, dryRun)
		},
	}
	cmd.Flags().String("doc", "", "initial JSON document")
	cmd.Flags().StringArray("set", nil, "assignment path=value; value is raw JSON when valid, a string otherwise")
	cmd.Flags().Bool("dry-run", false, "cancel the guard and print the values that would be set")
	return cmd
}

func (a *app) runJSON(sets []string, dryRun bool) error {
	if !gjson.Valid(a.cfg.JSON.Doc) {
		return fmt.Errorf("document %q: %w", a.cfg.JSON.Doc, ErrInvalidJSON)
	}

	doc := guard.New(a.cfg.JSON.Doc, func(doc string) {
		a.log.Debug("document committed", zap.Int("bytes", len(doc)))
		fmt.Fprintln(a.out, doc)
	})
	defer doc.Close()

	paths := make([]string, 0, len(sets))
	for _, set := range sets {
		path, err := applySet(doc.Ptr(), set)
		if err != nil {
			doc.MustCancel()
			return err
		}
		paths = append(paths, path)
	}

	if !dryRun {
		return nil
	}

	final := doc.MustCancel()
	for _, path := range paths {
		fmt.Fprintf(a.out, "%s = %s\n", path, gjson.Get(final, path).Raw)
	}
	return nil
}

// applySet 把形如 path=value 的赋值写入 doc，返回 path。
func applySet(doc *string, set string) (string, error) {
	path, value, ok := strings.Cut(set, "=")
	if !ok || path == "" {
		return "", fmt.Errorf("assignment %q: expected path=value: %w", set, ErrInvalidJSON)
	}

	var (
		out string
		err error
	)
	if gjson.Valid(value) {
		out, err = sjson.SetRaw(*doc, path, value)
	} else {
		out, err = sjson.Set(*doc, path, value)
	}
	if err != nil {
		return "", fmt.Errorf("assignment %q: %w", set, err)
	}
	*doc = out
	return path, nil
}
