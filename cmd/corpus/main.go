// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/search"
)

func main() {
	app := &cli.App{
		Name:  "corpus",
		Usage: "Document ingestion and semantic retrieval for conversational AI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload documents and process them into searchable chunks",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID the documents belong to",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach to the documents (repeatable)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category to attach to the documents",
					},
					&cli.DurationFlag{
						Name:  "wait-timeout",
						Usage: "How long to wait for processing to finish",
						Value: 5 * time.Minute,
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List an owner's documents",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID to list documents for",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include deleted documents",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show one document's processing status",
				ArgsUsage: "DOCUMENT_ID",
				Action:    statusCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID the document belongs to",
						Required: true,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search an owner's documents",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID to search within",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
						Value: float64(search.DefaultThreshold),
					},
					&cli.Int64SliceFlag{
						Name:  "doc",
						Usage: "Restrict the search to a document ID (repeatable)",
					},
				),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its chunks, vectors, and stored file",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID the document belongs to",
						Required: true,
					},
				),
			},
			{
				Name:      "reprocess",
				Usage:     "Re-run extraction, chunking, and embedding for a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    reprocessCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID the document belongs to",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "wait-timeout",
						Usage: "How long to wait for processing to finish",
						Value: 5 * time.Minute,
					},
				),
			},
			{
				Name:   "stalled",
				Usage:  "List documents stuck in processing",
				Action: stalledCommand,
				Flags: append(aiFlags(),
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age a processing claim must exceed to count as stalled",
						Value: 10 * time.Minute,
					},
				),
			},
			{
				Name:   "chat",
				Usage:  "Interactive question answering over an owner's documents",
				Action: chatCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner ID whose documents answer the questions",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score for retrieved context",
						Value: float64(search.DefaultThreshold),
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// aiFlags are shared by every command that talks to the embedding or chat
// service.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dimension",
			Usage: "Embedding vector dimension",
			Value: 768,
		},
		&cli.StringFlag{
			Name:  "chat-host",
			Usage: "Chat service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openDatabase(c *cli.Context) (*corpus.Database, error) {
	chatHost := c.String("chat-host")
	if chatHost == "" {
		chatHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimension(c.Int("embedding-dimension")),
		ai.WithChatHost(chatHost),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := corpus.NewDatabase(c.String("db"), corpus.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func documentIDArg(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one document ID argument")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document ID %q: %w", c.Args().First(), err)
	}
	return core.ID(id), nil
}

func newPipeline(c *cli.Context, db *corpus.Database) (*ingestion.Pipeline, error) {
	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithEmbeddingDimension(c.Int("embedding-dimension")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	return pipeline, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c, db)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	ownerID := c.String("owner")
	var ids []core.ID
	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		doc, created, err := pipeline.RegisterDocument(ctx, ownerID, filepath.Base(path), content, &ingestion.RegisterOptions{
			Tags:     c.StringSlice("tag"),
			Category: c.String("category"),
		})
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", path, err)
		}
		if !created {
			fmt.Fprintf(os.Stderr, "%s: already ingested as document %d\n", path, doc.Id)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: registered as document %d\n", path, doc.Id)
		ids = append(ids, doc.Id)
	}

	for _, id := range ids {
		doc, err := waitForDocument(ctx, pipeline, ownerID, id, c.Duration("wait-timeout"))
		if err != nil {
			return err
		}
		if doc.Status == core.StatusFailed {
			fmt.Fprintf(os.Stderr, "document %d failed: %s\n", id, doc.ProcessingError)
			continue
		}
		fmt.Printf("document %d: %d chunks, %d words, %d pages\n",
			id, doc.ChunkCount, doc.Metadata.WordCount, doc.Metadata.PageCount)
	}
	return nil
}

// waitForDocument polls until the document reaches a terminal status.
func waitForDocument(ctx context.Context, pipeline *ingestion.Pipeline, ownerID string, id core.ID, timeout time.Duration) (*core.Document, error) {
	deadline := time.Now().Add(timeout)
	for {
		status, err := pipeline.GetDocumentStatus(ctx, ownerID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check document %d: %w", id, err)
		}
		if status.Document.Status.Terminal() {
			return status.Document, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for document %d", id)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.DocumentRepository().ListDocumentsByOwner(ctx, c.String("owner"), c.Bool("all"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%s\t%d chunks\t%s\n",
			doc.Id, doc.Status, doc.Name, doc.ChunkCount, doc.InsertedAt.Format(time.RFC3339))
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentIDArg(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c, db)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	status, err := pipeline.GetDocumentStatus(ctx, c.String("owner"), id)
	if err != nil {
		return fmt.Errorf("failed to get document %d: %w", id, err)
	}

	doc := status.Document
	fmt.Printf("id: %d\n", doc.Id)
	fmt.Printf("name: %s\n", doc.Name)
	fmt.Printf("owner: %s\n", doc.OwnerId)
	fmt.Printf("status: %s\n", doc.Status)
	fmt.Printf("progress: %.0f%%\n", status.Progress*100)
	fmt.Printf("chunks: %d\n", doc.ChunkCount)
	if doc.ProcessingError != "" {
		fmt.Printf("error: %s\n", doc.ProcessingError)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	var docIDs []core.ID
	for _, raw := range c.Int64Slice("doc") {
		docIDs = append(docIDs, core.ID(raw))
	}

	matches, err := searcher.Search(ctx, search.Query{
		OwnerId:     c.String("owner"),
		Text:        c.Args().First(),
		DocumentIDs: docIDs,
		Limit:       c.Int("limit"),
		Threshold:   float32(c.Float64("threshold")),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, match := range matches {
		fmt.Printf("[%.3f] doc %d chunk %d (page %d)\n%s\n\n",
			match.Score, match.Chunk.DocumentId, match.Chunk.Ordinal, match.Chunk.Page, match.Chunk.Text)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "no matches")
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentIDArg(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c, db)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	chunks, err := pipeline.DeleteDocument(ctx, c.String("owner"), id)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}

	fmt.Fprintf(os.Stderr, "deleted document %d (%d chunks removed)\n", id, chunks)
	return nil
}

func reprocessCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentIDArg(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c, db)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	ownerID := c.String("owner")
	if _, err := pipeline.Reprocess(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to reprocess document %d: %w", id, err)
	}

	doc, err := waitForDocument(ctx, pipeline, ownerID, id, c.Duration("wait-timeout"))
	if err != nil {
		return err
	}
	if doc.Status == core.StatusFailed {
		return fmt.Errorf("document %d failed: %s", id, doc.ProcessingError)
	}
	fmt.Printf("document %d: %d chunks\n", id, doc.ChunkCount)
	return nil
}

func stalledCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(c, db)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	docs, err := pipeline.Stalled(ctx, c.Duration("older-than"))
	if err != nil {
		return fmt.Errorf("failed to list stalled documents: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\tclaimed %s\n",
			doc.Id, doc.Name, doc.ProcessingStartedAt.Format(time.RFC3339))
	}
	if len(docs) == 0 {
		fmt.Fprintln(os.Stderr, "no stalled documents")
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	ownerID := c.String("owner")
	conversations := db.Conversations()
	sessionID := fmt.Sprintf("cli-%s", ownerID)

	fmt.Fprintln(os.Stderr, "Ask questions about your documents. Ctrl-D to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		if err := conversations.AddMessage(sessionID, core.RoleUser, question); err != nil {
			return err
		}

		reply, matches, err := searcher.Answer(ctx, search.Query{
			OwnerId:   ownerID,
			Text:      question,
			Threshold: float32(c.Float64("threshold")),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		if err := conversations.AddMessage(sessionID, core.RoleAssistant, reply); err != nil {
			return err
		}

		fmt.Println(reply)
		if len(matches) > 0 {
			fmt.Fprintf(os.Stderr, "(%d supporting chunks)\n", len(matches))
		}
	}
	return scanner.Err()
}
