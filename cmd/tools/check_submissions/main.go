package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rafael/tender-picker/internal/journal"
)

func main() {
	ctx := context.Background()
	pool, err := journal.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	runs, err := journal.NewRecorder(pool).Recent(ctx, 10)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Session", "Outcome", "Projects", "Processed", "Failed", "Duration", "Started At"})

	for _, run := range runs {
		duration := "Running..."
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}

		session := run.SessionID
		if len(session) > 8 {
			session = session[:8]
		}

		t.AppendRow(table.Row{session, run.Outcome, strings.Join(run.ProjectIDs, ","), run.Processed, run.Failed, duration, run.StartedAt.Format("15:04:05")})
	}
	t.Render()
}
