package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/merge"
	"github.com/matsen/refmerge/internal/storage"
	"github.com/spf13/cobra"
)

var (
	mergeOutDir     string
	mergeMode       string
	mergeSeparator  string
	mergeWriteEmpty bool
	mergeNoHistory  bool
)

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutDir, "output", "o", ".", "Directory to write merged_output.ris and merged_output.enw into")
	mergeCmd.Flags().StringVar(&mergeMode, "mode", "", "Comparison mode: literal or normalized (overrides config)")
	mergeCmd.Flags().StringVar(&mergeSeparator, "separator", "", `Text between merged entries, Go escapes allowed (e.g. "\n\n"; overrides config)`)
	mergeCmd.Flags().BoolVar(&mergeWriteEmpty, "write-empty", false, "Write an output file even when it has no entries")
	mergeCmd.Flags().BoolVar(&mergeNoHistory, "no-history", false, "Do not record this run in history_db")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <file|dir>...",
	Short: "Merge local .ris and .enw files",
	Long: `Merge local .ris and .enw files into merged_output.ris and merged_output.enw.

Files whose text is already present in the same format are dropped. Files with
other extensions are skipped with a warning, as are files that are not UTF-8.
Directories contribute their .ris and .enw files (not recursive).

Examples:
  refmerge merge a.ris b.ris c.enw
  refmerge merge exports/ -o merged/
  refmerge merge --mode normalized --separator "" *.ris`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

// InputError reports a file that could not be read.
type InputError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// OutputFile describes a written merge output.
type OutputFile struct {
	Format string `json:"format"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
}

// MergeResult is the JSON response for refmerge merge.
type MergeResult struct {
	Mode        string       `json:"mode"`
	Inputs      int          `json:"inputs"`
	Outputs     []OutputFile `json:"outputs"`
	Stats       merge.Stats  `json:"stats"`
	Warnings    []string     `json:"warnings"`
	Errors      []string     `json:"errors"`
	InputErrors []InputError `json:"input_errors,omitempty"`
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	opts, err := mergeOptions(cmd, cfg)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	paths, err := expandInputs(args)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	files, inputErrs := readInputFiles(paths)

	res := merge.New(opts).Merge(files)

	outputs, err := writeOutputs(mergeOutDir, res, mergeWriteEmpty)
	if err != nil {
		exitWithError(ExitError, "writing outputs: %v", err)
	}

	if cfg.HistoryDB != "" && !mergeNoHistory {
		recordCLIRun(cmd, cfg, opts.Mode, len(files), res)
	}

	result := MergeResult{
		Mode:        opts.Mode.String(),
		Inputs:      len(paths),
		Outputs:     outputs,
		Stats:       res.Stats,
		Warnings:    res.Warnings,
		Errors:      make([]string, 0, len(res.Errors)),
		InputErrors: inputErrs,
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, e.Error())
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	if result.Outputs == nil {
		result.Outputs = []OutputFile{}
	}

	if humanOutput {
		printMergeHuman(result)
	} else {
		outputJSON(result)
	}

	if code := mergeExitCode(res); code != ExitSuccess {
		os.Exit(code)
	}
	return nil
}

// mergeExitCode returns ExitDataError when no input contributed an entry,
// i.e. every file was skipped, undecodable or missing.
func mergeExitCode(res merge.Result) int {
	if res.Stats.RIS.Unique+res.Stats.ENW.Unique == 0 {
		return ExitDataError
	}
	return ExitSuccess
}

// mergeOptions applies --mode and --separator on top of the configured options.
func mergeOptions(cmd *cobra.Command, cfg *config.Config) (merge.Options, error) {
	opts, err := cfg.MergeOptions()
	if err != nil {
		return merge.Options{}, err
	}
	if cmd.Flags().Changed("mode") {
		if opts.Mode, err = merge.ParseMode(mergeMode); err != nil {
			return merge.Options{}, err
		}
	}
	if cmd.Flags().Changed("separator") {
		opts.Separator = config.Unescape(mergeSeparator)
	}
	return opts, nil
}

// expandInputs replaces each directory argument with the .ris and .enw files
// directly inside it. Other arguments pass through unchanged so that missing
// files are reported by readInputFiles.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || merge.Classify(e.Name()) == merge.Unrecognized {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	return paths, nil
}

// readInputFiles reads every path. Unreadable files are reported and skipped.
func readInputFiles(paths []string) ([]merge.UploadedFile, []InputError) {
	var files []merge.UploadedFile
	var errs []InputError
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, InputError{Path: p, Error: err.Error()})
			continue
		}
		files = append(files, merge.UploadedFile{Name: p, Content: content})
	}
	return files, errs
}

// writeOutputs writes the non-empty merged outputs (all of them with
// writeEmpty) into dir.
func writeOutputs(dir string, res merge.Result, writeEmpty bool) ([]OutputFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var outputs []OutputFile
	for _, class := range []merge.ExtensionClass{merge.RIS, merge.ENW} {
		body := res.Output(class)
		if body == "" && !writeEmpty {
			continue
		}
		path := filepath.Join(dir, class.OutputName())
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		outputs = append(outputs, OutputFile{Format: class.String(), Path: path, Bytes: int64(len(body))})
	}
	return outputs, nil
}

// recordCLIRun stores a run summary. Failures are reported on stderr only.
func recordCLIRun(cmd *cobra.Command, cfg *config.Config, mode merge.Mode, files int, res merge.Result) {
	hist, err := storage.Open(cfg.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: opening history: %v\n", err)
		return
	}
	defer hist.Close()

	if err := hist.RecordRun(cmd.Context(), storage.NewRun("cli", mode, files, res)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

func printMergeHuman(r MergeResult) {
	for _, w := range r.Warnings {
		outputHuman("warning: %s\n", w)
	}
	for _, e := range r.InputErrors {
		outputHuman("error: %s: %s\n", e.Path, e.Error)
	}

	outputHuman("Merged %d inputs (%s comparison)\n", r.Inputs, r.Mode)
	outputHuman("  RIS: %d files, %d unique, %d duplicates\n", r.Stats.RIS.Files, r.Stats.RIS.Unique, r.Stats.RIS.Duplicates)
	outputHuman("  ENW: %d files, %d unique, %d duplicates\n", r.Stats.ENW.Files, r.Stats.ENW.Unique, r.Stats.ENW.Duplicates)
	if len(r.Outputs) == 0 {
		outputHuman("No output written.\n")
		return
	}
	for _, o := range r.Outputs {
		outputHuman("Wrote %s (%s)\n", o.Path, formatBytes(o.Bytes))
	}
}
