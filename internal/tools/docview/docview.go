// Package docview implements the docview command: it stores JSON documents
// in SQLite and prints them through the Manifest view.
package docview

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/typedview/internal/platform/config"
	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
	"github.com/louisbranch/typedview/internal/platform/i18n/catalog"
	"github.com/louisbranch/typedview/internal/platform/timeouts"
	"github.com/louisbranch/typedview/internal/storage/sqlite"
	"github.com/louisbranch/typedview/internal/view"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/text/message"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

const envPrefix = "TYPEDVIEW_DOCVIEW_"

// Config holds docview command configuration.
type Config struct {
	DBPath  string
	Locale  string
	Timeout time.Duration

	Put      string
	File     string
	Show     string
	List     bool
	Patch    string
	Path     string
	Value    string
	Raw      string
	Delete   string
	Describe bool

	// Status also prints the gRPC status of a failed operation to the
	// error output.
	Status bool
}

type envConfig struct {
	DBPath  string        `env:"DB_PATH"`
	Locale  string        `env:"LOCALE" envDefault:"en-US"`
	Timeout time.Duration `env:"TIMEOUT"`
	Status  bool          `env:"GRPC_STATUS"`
}

// ParseConfig reads TYPEDVIEW_DOCVIEW_* variables and then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	envCfg := envConfig{Timeout: timeouts.Command}
	if err := config.ParseEnvWithPrefix(envPrefix, &envCfg); err != nil {
		return Config{}, err
	}
	cfg := Config{
		DBPath:  envCfg.DBPath,
		Locale:  envCfg.Locale,
		Timeout: envCfg.Timeout,
		Status:  envCfg.Status,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "documents.db")
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the documents sqlite database (default: TYPEDVIEW_DOCVIEW_DB_PATH or data/documents.db)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for output and error messages")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.StringVar(&cfg.Put, "put", "", "store the document read from -file under this ID")
	fs.StringVar(&cfg.File, "file", "", "JSON file for -put")
	fs.StringVar(&cfg.Show, "show", "", "print the document with this ID as a manifest")
	fs.BoolVar(&cfg.List, "list", false, "print every document as a manifest")
	fs.StringVar(&cfg.Patch, "patch", "", "set -path to -value in the document with this ID")
	fs.StringVar(&cfg.Path, "path", "", "JSON path for -patch")
	fs.StringVar(&cfg.Value, "value", "", "value for -patch; JSON literals are stored as JSON, anything else as text")
	fs.StringVar(&cfg.Raw, "raw", "", "print the stored JSON of the document with this ID")
	fs.StringVar(&cfg.Delete, "delete", "", "delete the document with this ID")
	fs.BoolVar(&cfg.Describe, "describe", false, "print the manifest view descriptor")
	fs.BoolVar(&cfg.Status, "status", cfg.Status, "print the gRPC status of a failed operation to stderr")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) modes() []string {
	var modes []string
	for flagName, set := range map[string]bool{
		"-put":      cfg.Put != "",
		"-show":     cfg.Show != "",
		"-list":     cfg.List,
		"-patch":    cfg.Patch != "",
		"-raw":      cfg.Raw != "",
		"-delete":   cfg.Delete != "",
		"-describe": cfg.Describe,
	} {
		if set {
			modes = append(modes, flagName)
		}
	}
	slices.Sort(modes)
	return modes
}

// Run executes the docview command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	switch modes := cfg.modes(); len(modes) {
	case 0:
		return errors.New("one of -put, -show, -list, -patch, -raw, -delete or -describe is required")
	case 1:
	default:
		return fmt.Errorf("only one mode may be given, got %s", strings.Join(modes, " "))
	}

	r := &runner{
		printer: catalog.Default().Printer(cfg.Locale),
		locale:  cfg.Locale,
		out:     out,
		errOut:  errOut,
		status:  cfg.Status,
	}
	if cfg.Describe {
		return r.describe()
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open documents store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "close documents store: %v\n", closeErr)
		}
	}()

	switch {
	case cfg.Put != "":
		return r.put(ctx, store, cfg.Put, cfg.File)
	case cfg.Show != "":
		return r.show(ctx, store, cfg.Show)
	case cfg.List:
		return r.list(ctx, store)
	case cfg.Patch != "":
		return r.patch(ctx, store, cfg.Patch, cfg.Path, cfg.Value)
	case cfg.Raw != "":
		return r.raw(ctx, store, cfg.Raw)
	default:
		return r.delete(ctx, store, cfg.Delete)
	}
}

type runner struct {
	printer *message.Printer
	locale  string
	out     io.Writer
	errOut  io.Writer
	status  bool
}

// line prints the catalog message key followed by a newline.
func (r *runner) line(key string, args ...any) {
	r.printer.Fprintf(r.out, key, args...)
	fmt.Fprintln(r.out)
}

// localizedError shows the user-facing message of a domain error while
// keeping it in the chain.
type localizedError struct {
	message string
	err     error
}

func (e *localizedError) Error() string { return e.message }

func (e *localizedError) Unwrap() error { return e.err }

func (r *runner) localize(err error) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return err
	}
	message := apperrors.LocalizedMessage(err, r.locale)
	if r.status {
		r.printStatus(domainErr.ToGRPCStatus(r.locale, message))
	}
	return &localizedError{message: message, err: err}
}

// printStatus writes the code and ErrorInfo reason of a gRPC status error.
func (r *runner) printStatus(err error) {
	st := status.Convert(err)
	reason := ""
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			reason = info.GetReason()
		}
	}
	r.printer.Fprintf(r.errOut, "docview.status", st.Code().String(), reason)
	fmt.Fprintln(r.errOut)
}

func (r *runner) put(ctx context.Context, store *sqlite.Store, id, file string) error {
	if strings.TrimSpace(file) == "" {
		return errors.New("-file is required with -put")
	}
	body, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if err := store.Put(ctx, id, body); err != nil {
		return r.localize(err)
	}
	r.line("docview.stored", id)
	return nil
}

func (r *runner) show(ctx context.Context, store *sqlite.Store, id string) error {
	doc, err := store.Get(ctx, id)
	if err != nil {
		return r.localize(err)
	}
	manifest, err := view.Interpret[Manifest](doc)
	if err != nil {
		return r.localize(err)
	}
	r.line("docview.document", id)
	r.manifest(manifest)
	return nil
}

func (r *runner) list(ctx context.Context, store *sqlite.Store) error {
	docs, err := store.List(ctx)
	if err != nil {
		return r.localize(err)
	}
	failed := 0
	i := 0
	for manifest, err := range view.InterpretAll[Manifest](store.StoragesOf(docs)) {
		if err != nil {
			// The view itself is invalid; no document can be read.
			return r.localize(err)
		}
		r.line("docview.document", docs[i].ID)
		if !r.manifest(manifest) {
			failed++
		}
		i++
	}
	r.line("docview.summary", len(docs), failed)
	return nil
}

func (r *runner) patch(ctx context.Context, store *sqlite.Store, id, path, value string) error {
	var err error
	if gjson.Valid(value) {
		err = store.PatchRaw(ctx, id, path, value)
	} else {
		err = store.Patch(ctx, id, path, value)
	}
	if err != nil {
		return r.localize(err)
	}
	r.line("docview.patched", id, path)
	return nil
}

func (r *runner) raw(ctx context.Context, store *sqlite.Store, id string) error {
	body, err := store.Raw(ctx, id)
	if err != nil {
		return r.localize(err)
	}
	_, err = r.out.Write(pretty.Pretty(body))
	return err
}

func (r *runner) delete(ctx context.Context, store *sqlite.Store, id string) error {
	if err := store.Delete(ctx, id); err != nil {
		return r.localize(err)
	}
	r.line("docview.deleted", id)
	return nil
}

func (r *runner) describe() error {
	desc, err := view.DescriptorOf[Manifest]()
	if err != nil {
		return r.localize(err)
	}
	r.describeView(desc, "")
	return nil
}

func (r *runner) describeView(desc *view.Descriptor, prefix string) {
	if prefix == "" {
		r.line("docview.view", desc.Type.Name())
	}
	for _, prop := range desc.Properties {
		access := r.printer.Sprintf("docview.read_only")
		if prop.Mutable {
			access = r.printer.Sprintf("docview.read_write")
		}
		r.line("docview.property", prefix+prop.Key, prop.Type.String(), access)
		if prop.Kind == view.KindView {
			nested, err := view.Describe(prop.Type)
			if err == nil {
				r.describeView(nested, prefix+prop.Key+".")
			}
		}
	}
}
