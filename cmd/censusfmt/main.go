package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"censusfmt/internal/config"
	"censusfmt/internal/intake"
	gmailconnector "censusfmt/internal/intake/gmail"
	imapconnector "censusfmt/internal/intake/imap"
	"censusfmt/internal/listener"
	"censusfmt/internal/pipeline"
	"censusfmt/internal/storage"
	"censusfmt/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	must(err)
	defer func() { _ = logger.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input xlsx path")
		output := fs.String("output", "", "output xlsx path")
		summary := fs.Bool("summary", false, "print validation summary as JSON")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*output) == "" {
			must(fmt.Errorf("--input and --output are required"))
		}

		table, err := pipeline.ParseWorkbookFile(*input)
		must(err)
		out := pipeline.Run(table, cfg.DefaultHoursWorked)
		if len(out.MissingRequired) > 0 {
			fmt.Printf("warning: required columns not found: %s\n", strings.Join(pipeline.FieldLabels(out.MissingRequired), ", "))
		}
		must(pipeline.ExportWorkbook(out.Records, out.Diagnostics, out.Validation, pipeline.ExportOptions{
			OutputPath:        *output,
			SplitBlankColumns: cfg.SplitBlankColumns,
		}))
		if blanks := out.RawAnalysis.BlankColumns; len(blanks) > 0 {
			fmt.Printf("note: source columns with no data: %s\n", strings.Join(blanks, ", "))
		}
		fmt.Printf("run done rows=%d records=%d errors=%d warnings=%d output=%s\n",
			len(table.Rows), len(out.Records), len(out.Validation.Errors), len(out.Validation.Warnings), *output)
		if *summary {
			encoded, _ := json.MarshalIndent(out.Validation.Summary, "", "  ")
			fmt.Println(string(encoded))
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := intake.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d known=%d\n", *provider, result.Fetched, result.Stored, result.AlreadyKnown)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg, logger)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessBySourceMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed upload id=%d records=%d\n", res.UploadID, res.Records)
			return
		}
		processedUploads, processedRecords, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending uploads=%d records=%d\n", processedUploads, processedRecords)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		uploadID := fs.Int("uploadId", 0, "internal upload id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *uploadID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--uploadId and --out are required"))
		}
		processor := pipeline.NewProcessingService(db, cfg, logger)
		must(processor.ExportUpload(*uploadID, *out))
		fmt.Printf("exported upload %d to %s\n", *uploadID, *out)
	case "mail:listen":
		s := listener.NewService(db, cfg, logger)
		must(s.Run(context.Background()))
	case "watch":
		w, err := watcher.NewInboxWatcher(db, cfg, logger)
		must(err)
		must(w.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (intake.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: censusfmt <command>")
	fmt.Println("commands:")
	fmt.Println("  run --input=./census.xlsx --output=./out/census_clean.xlsx [--summary]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  watch")
	fmt.Println("  export:xlsx --uploadId=1 --out=./out/result.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
