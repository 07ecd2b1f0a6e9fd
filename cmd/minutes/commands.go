package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/poiesic/minutes"
	"github.com/poiesic/minutes/answer"
	"github.com/poiesic/minutes/core"
	"github.com/poiesic/minutes/ingestion"
	"github.com/poiesic/minutes/knowledge"
	"github.com/poiesic/minutes/reembed"
	"github.com/poiesic/minutes/search"
	"github.com/urfave/cli/v2"
)

func analyzeCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) > 1 && c.String("meeting-id") != "" {
		return errors.New("meeting-id can only be used with a single transcript")
	}
	if len(files) > 1 && c.String("export") != "" {
		return errors.New("export can only be used with a single transcript")
	}

	transcripts, err := readTranscripts(c, files)
	if err != nil {
		return err
	}

	a, err := openAssistant(c, minutes.WithSentimentDelay(c.Duration("sentiment-delay")))
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.NewPipeline(ingestion.WithPoolSize(c.Int("workers")))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	w := c.App.Writer
	var (
		mu       sync.Mutex
		analyzed []*core.MeetingRecord
		failures []error
	)
	for _, t := range transcripts {
		opts := ingestion.AnalyzeOptions{
			MeetingID: c.String("meeting-id"),
			Replace:   c.Bool("replace"),
		}
		_, err := pipeline.Submit(c.Context, t.text, opts, func(record *core.MeetingRecord, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", t.name, err))
				return
			}
			analyzed = append(analyzed, record)
			fmt.Fprintf(w, "== %s (%s)\n", record.MeetingID, t.name)
			printReport(w, record)
		})
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", t.name, err)
		}
	}
	pipeline.Wait()

	if path := c.String("export"); path != "" && len(analyzed) == 1 {
		if err := writeExportFile(path, analyzed[0]); err != nil {
			return err
		}
		fmt.Fprintf(w, "Export written to %s\n", path)
	}

	return errors.Join(failures...)
}

type namedTranscript struct {
	name string
	text string
}

func readTranscripts(c *cli.Context, files []string) ([]namedTranscript, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []namedTranscript{{name: "stdin", text: string(data)}}, nil
	}

	transcripts := make([]namedTranscript, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript: %w", err)
		}
		transcripts = append(transcripts, namedTranscript{name: f, text: string(data)})
	}
	return transcripts, nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("question is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []answer.Option{answer.WithTopK(c.Int("top-k"))}
	if c.Bool("strict") {
		opts = append(opts, answer.WithPolicy(answer.StrictPolicy()))
	}
	engine, err := a.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("failed to create answer engine: %w", err)
	}

	resp, err := engine.Answer(c.Context, question, c.String("meeting"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, resp.Text)
	if c.Bool("sources") && len(resp.Excerpts) > 0 {
		fmt.Fprintf(w, "\nSources (%s, via %s):\n", resp.Strategy, resp.Provider)
		for _, hit := range resp.Excerpts {
			fmt.Fprintf(w, "  %.3f %s\n", hit.Score, knowledge.FormatHit(hit))
		}
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	searcher, err := search.NewSearcher(a.Meetings(), a.KnowledgeStore(),
		search.WithMinScore(float32(c.Float64("min-score"))))
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(c.Context, query, c.Int("limit"), c.StringSlice("meeting")...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(w, "%.3f %s [%s] %s: %s\n",
			r.Score, r.MeetingID, r.Utterance.Timestamp(), r.Utterance.Speaker, r.Utterance.Text)
	}
	return nil
}

func meetingsCommand(c *cli.Context) error {
	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Meetings().List(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(records) == 0 {
		fmt.Fprintln(w, "No meetings.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s  %s  %d utterances  %d action items  %s\n",
			r.MeetingID, r.CreatedAt.Format("2006-01-02 15:04"),
			len(r.Utterances), len(r.Insights.ActionItems), r.Insights.OverallSentiment)
	}
	return nil
}

func showCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("meeting id is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	record, err := a.Meetings().Get(c.Context, id)
	if err != nil {
		return err
	}
	printReport(c.App.Writer, record)
	return nil
}

func tasksCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("meeting id is required")
	}

	filters := 0
	for _, name := range []string{"tag", "owner", "urgency"} {
		if c.IsSet(name) {
			filters++
		}
	}
	if filters > 1 {
		return errors.New("use only one of --tag, --owner and --urgency")
	}

	var urgency core.Urgency
	if c.IsSet("urgency") {
		u, err := core.LookupUrgency(c.String("urgency"))
		if err != nil {
			return err
		}
		urgency = u
	}
	if c.IsSet("tag") && strings.TrimSpace(c.String("tag")) == "" {
		return errors.New("tag cannot be empty")
	}
	if c.IsSet("owner") && strings.TrimSpace(c.String("owner")) == "" {
		return errors.New("owner cannot be empty")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	record, err := a.Meetings().Get(c.Context, id)
	if err != nil {
		return err
	}

	in := record.Insights
	var items []core.ActionItem
	switch {
	case c.IsSet("tag"):
		items = in.ActionItemsByTag(c.String("tag"))
	case c.IsSet("owner"):
		items = in.ActionItemsByOwner(c.String("owner"))
	case urgency != "":
		items = in.ActionItemsByUrgency(urgency)
	default:
		items = in.SortedActionItems()
	}

	w := c.App.Writer
	for _, item := range items {
		printActionItem(w, item)
	}
	fmt.Fprintf(w, "%d of %d action items\n", len(items), len(in.ActionItems))
	return nil
}

func exportCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("meeting id is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	record, err := a.Meetings().Get(c.Context, id)
	if err != nil {
		return err
	}

	if path := c.String("output"); path != "" {
		return writeExportFile(path, record)
	}
	return ingestion.WriteExport(c.App.Writer, ingestion.NewExport(record))
}

func writeExportFile(path string, record *core.MeetingRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	if err := ingestion.WriteExport(f, ingestion.NewExport(record)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func deleteCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("meeting id is required")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Meetings().Get(c.Context, id); err != nil {
		return err
	}
	removed, err := a.KnowledgeStore().DeleteMeeting(c.Context, id)
	if err != nil {
		return err
	}
	if err := a.Meetings().Delete(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %s (%d stored utterances)\n", id, removed)
	return nil
}

func statsCommand(c *cli.Context) error {
	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.KnowledgeStore().Stats(c.Context)
	if err != nil {
		return err
	}
	records, err := a.Meetings().List(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Collection: %s\n", info.Name)
	fmt.Fprintf(w, "Dimension:  %d (%s)\n", info.Dimension, info.Metric)
	fmt.Fprintf(w, "Records:    %d\n", info.Count)
	fmt.Fprintf(w, "Indexed:    %s\n", strings.Join(info.Indexed, ", "))
	fmt.Fprintf(w, "Meetings:   %d\n", len(records))
	return nil
}

func reembedCommand(c *cli.Context) error {
	config := &reembed.Config{
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	reembedder := reembed.NewReembedder(a.Meetings(), a.KnowledgeStore(), config, c.App.ErrWriter)
	if _, err := reembedder.Run(c.Context, c.Args().Slice()...); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// printReport writes the human-readable analysis of a meeting.
func printReport(w io.Writer, record *core.MeetingRecord) {
	in := record.Insights
	fmt.Fprintf(w, "Meeting:   %s\n", record.MeetingID)
	fmt.Fprintf(w, "Sentiment: %s\n", in.OverallSentiment)
	fmt.Fprintf(w, "Summary:   %s\n", in.ExecutiveSummary)

	if len(in.ActionItems) > 0 {
		fmt.Fprintln(w, "Action items:")
		for _, item := range in.SortedActionItems() {
			printActionItem(w, item)
		}
	}
	if len(in.Topics) > 0 {
		fmt.Fprintf(w, "Topics:    %s\n", strings.Join(in.Topics, ", "))
	}

	dist := record.SentimentDistribution()
	fmt.Fprintf(w, "Speakers (%d positive, %d negative, %d neutral):\n", dist.Positive, dist.Negative, dist.Neutral)
	for _, s := range dist.Speakers {
		fmt.Fprintf(w, "  %s: %d segments, %s (%.2f)\n", s.Speaker, s.Segments, s.Label, s.AverageSentiment)
	}
}

func printActionItem(w io.Writer, item core.ActionItem) {
	fmt.Fprintf(w, "  [%s] %s (owner: %s, deadline: %s)",
		strings.ToUpper(string(item.Urgency)), item.Task, item.Owner, item.DeadlineOr("none"))
	if len(item.Tags) > 0 {
		fmt.Fprintf(w, " tags: %s", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintln(w)
}
