/*
 * netscan - flow-based scanner detection engine
 * Copyright (c) 2020-2026 The netscan Authors
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHORS DISCLAIM ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"netscan"
	"netscan/internal/classify"
	"netscan/internal/output"
)

// config holds every recognized command-line option, parsed once in
// main and threaded down into the pieces that need it.
type config struct {
	scanModel   int
	internalSet string
	sipSetAlias string
	theta0      float64
	theta1      float64

	outputPath string

	noTitles         bool
	noColumns        bool
	noFinalDelimiter bool
	columnSeparator  string
	delimited        string
	delimitedSet     bool
	integerIPs       bool
	modelFields      bool
	scandb           bool

	threads    int
	queueDepth int

	verboseProgress int
	verboseFlows    bool
	verboseResults  string
	verboseResultsSet bool

	pcapInput   string
	metricsAddr string
	logLevel    string
	reportPath  string

	args []string
}

func parseFlags(arguments []string) (*config, error) {
	fs := flag.NewFlagSet("netscan", flag.ContinueOnError)

	cfg := &config{}
	fs.IntVar(&cfg.scanModel, "scan-model", 0, "0 = HYBRID (default), 1 = TRW only, 2 = BLR only")
	fs.StringVar(&cfg.internalSet, "trw-internal-set", "", "IP-set of valid internal destinations (required if TRW enabled)")
	fs.StringVar(&cfg.sipSetAlias, "trw-sip-set", "", "deprecated alias of --trw-internal-set")
	fs.Float64Var(&cfg.theta0, "trw-theta0", classify.DefaultTheta0, "TRW theta0 override in [0,1]")
	fs.Float64Var(&cfg.theta1, "trw-theta1", classify.DefaultTheta1, "TRW theta1 override in [0,1]")

	fs.StringVar(&cfg.outputPath, "output-path", "", "write scanner rows here; default stdout")
	fs.BoolVar(&cfg.noTitles, "no-titles", false, "suppress the header row")
	fs.BoolVar(&cfg.noColumns, "no-columns", false, "disable fixed-width column padding")
	fs.BoolVar(&cfg.noFinalDelimiter, "no-final-delimiter", false, "omit the trailing delimiter on each row")
	fs.StringVar(&cfg.columnSeparator, "column-separator", "", "override the column separator (default |)")
	fs.StringVar(&cfg.delimited, "delimited", "", "shorthand for --no-columns --no-final-delimiter with the given separator")
	fs.Lookup("delimited").NoOptDefVal = ","
	fs.BoolVar(&cfg.integerIPs, "integer-ips", false, "emit source IPs as 32-bit unsigned decimals")
	fs.BoolVar(&cfg.modelFields, "model-fields", false, "include scan_model and scan_prob columns")
	fs.BoolVar(&cfg.scandb, "scandb", false, "shortcut for --no-titles --no-columns --model-fields --no-final-delimiter --integer-ips")

	fs.IntVar(&cfg.threads, "threads", 1, "worker count")
	fs.IntVar(&cfg.queueDepth, "queue-depth", 0, "work-queue max depth; default = threads")

	fs.IntVar(&cfg.verboseProgress, "verbose-progress", 0, "emit a progress line once per CIDR of width /32-N")
	fs.BoolVar(&cfg.verboseFlows, "verbose-flows", false, "log every ICMP/TCP/UDP flow record")
	fs.StringVar(&cfg.verboseResults, "verbose-results", "", "log every classified event, optionally filtered to scan_probability >= MIN")
	fs.Lookup("verbose-results").NoOptDefVal = "0"

	fs.StringVar(&cfg.pcapInput, "pcap-input", "", "read flows from a pcap/pcapng capture instead of the text format")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve Prometheus metrics at ADDR; unset disables it")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "zap level for diagnostic output")
	fs.StringVar(&cfg.reportPath, "report-path", "", "write a JSON summary report here after the run completes")

	if err := fs.Parse(arguments); err != nil {
		return nil, err
	}

	cfg.delimitedSet = fs.Changed("delimited")
	cfg.verboseResultsSet = fs.Changed("verbose-results")
	cfg.args = fs.Args()

	if cfg.queueDepth <= 0 {
		cfg.queueDepth = cfg.threads
	}
	if cfg.internalSet == "" {
		cfg.internalSet = cfg.sipSetAlias
	}
	if cfg.scandb {
		cfg.noTitles = true
		cfg.noColumns = true
		cfg.modelFields = true
		cfg.noFinalDelimiter = true
		cfg.integerIPs = true
	}

	return cfg, nil
}

// model resolves the --scan-model integer into the typed enum,
// returning an error for anything outside {0,1,2}.
func (c *config) model() (netscan.ScanModel, error) {
	switch c.scanModel {
	case 0:
		return netscan.ModelHybrid, nil
	case 1:
		return netscan.ModelTRW, nil
	case 2:
		return netscan.ModelBLR, nil
	default:
		return 0, fmt.Errorf("invalid --scan-model %d: must be 0, 1, or 2", c.scanModel)
	}
}

// verboseResultsThreshold reports the minimum scan_probability to log
// under --verbose-results, or nil if the flag wasn't given at all. A
// bare --verbose-results (no value) logs every classified event.
func (c *config) verboseResultsThreshold() (*float64, error) {
	if !c.verboseResultsSet {
		return nil, nil
	}
	if c.verboseResults == "" {
		min := 0.0
		return &min, nil
	}
	min, err := strconv.ParseFloat(c.verboseResults, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --verbose-results %q: %w", c.verboseResults, err)
	}
	return &min, nil
}

// requiresInternalSet reports whether the selected model runs TRW and
// therefore needs --trw-internal-set.
func (c *config) requiresInternalSet() bool {
	return c.scanModel == 0 || c.scanModel == 1
}

// outputOptions translates the column-formatting flags into
// output.Options, applying --delimited's shorthand semantics last so
// it overrides the individual flags it implies.
func (c *config) outputOptions() output.Options {
	opts := output.DefaultOptions()
	opts.NoTitles = c.noTitles
	opts.NoColumns = c.noColumns
	opts.NoFinalDelimiter = c.noFinalDelimiter
	opts.IntegerIPs = c.integerIPs
	opts.ModelFields = c.modelFields

	if c.columnSeparator != "" {
		opts.Delimiter = c.columnSeparator[0]
	}

	if c.delimitedSet {
		opts.NoColumns = true
		opts.NoFinalDelimiter = true
		if c.delimited != "" {
			opts.Delimiter = c.delimited[0]
		} else {
			opts.Delimiter = ','
		}
	}

	if len(c.outputPath) > 0 && isGzipPath(c.outputPath) {
		opts.Compress = true
	}

	return opts
}

func isGzipPath(path string) bool {
	return len(path) > 3 && path[len(path)-3:] == ".gz"
}
