// Package main provides a tool to seed the database with sample catalog data.
//
// This creates a handful of books and readers and takes out loans in
// various states, including one already overdue, to exercise the API and
// search endpoints against realistic data.
//
// Usage:
//
//	DATA_PATH=~/circulate go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/circulateapp/circulate-server/internal/service"
	"github.com/circulateapp/circulate-server/internal/store"
	"github.com/circulateapp/circulate-server/internal/validation"
)

var wipe = flag.Bool("wipe", false, "Delete existing data before seeding")

type seedBook struct {
	title    string
	author   string
	isbn     string
	category string
	copies   int
}

type seedReader struct {
	name  string
	email string
	typ   string
}

var sampleBooks = []seedBook{
	{"The Go Programming Language", "Alan A. A. Donovan", "978-0134190440", "programming", 3},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", "978-1449373320", "programming", 2},
	{"The Name of the Wind", "Patrick Rothfuss", "978-0756404741", "fantasy", 4},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "978-0547773742", "fantasy", 1},
	{"The Martian", "Andy Weir", "978-0804139021", "scifi", 2},
	{"Project Hail Mary", "Andy Weir", "978-0593135204", "scifi", 1},
	{"Thinking, Fast and Slow", "Daniel Kahneman", "978-0374533557", "psychology", 2},
}

var sampleReaders = []seedReader{
	{"Grace Hopper", "grace@example.org", "faculty"},
	{"Alan Turing", "alan@example.org", "faculty"},
	{"Katherine Johnson", "katherine@example.org", "staff"},
	{"Dennis Ritchie", "dennis@example.org", "student"},
	{"Barbara Liskov", "barbara@example.org", "external"},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/circulate")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	if *wipe {
		if err := os.RemoveAll(dbPath); err != nil {
			log.Fatalf("Failed to wipe database: %v", err)
		}
		fmt.Println("Existing data deleted")
	}

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	v := validation.New()
	books := service.NewBookService(s, v, logger)
	readers := service.NewReaderService(s, v, logger)
	loans := service.NewLoanService(s, v, logger)

	ctx := context.Background()

	bookIDs := make([]string, 0, len(sampleBooks))
	for _, b := range sampleBooks {
		book, err := books.CreateBook(ctx, service.CreateBookRequest{
			Title:    b.title,
			Author:   b.author,
			ISBN:     b.isbn,
			Category: b.category,
			Copies:   b.copies,
		})
		if err != nil {
			log.Fatalf("Failed to create book %q: %v", b.title, err)
		}
		bookIDs = append(bookIDs, book.ID)
		fmt.Printf("  book   %s  %s\n", book.ID, b.title)
	}

	readerIDs := make([]string, 0, len(sampleReaders))
	for _, r := range sampleReaders {
		reader, err := readers.CreateReader(ctx, service.ReaderRequest{
			Name:  r.name,
			Email: r.email,
			Type:  r.typ,
		})
		if err != nil {
			log.Fatalf("Failed to create reader %q: %v", r.name, err)
		}
		readerIDs = append(readerIDs, reader.ID)
		fmt.Printf("  reader %s  %s\n", reader.ID, r.name)
	}

	// A few current loans.
	current := [][2]int{{0, 0}, {2, 1}, {4, 2}}
	for _, pair := range current {
		loan, err := loans.Borrow(ctx, service.BorrowRequest{
			BookID:   bookIDs[pair[0]],
			ReaderID: readerIDs[pair[1]],
		})
		if err != nil {
			log.Fatalf("Failed to borrow: %v", err)
		}
		fmt.Printf("  loan   %s  due %s\n", loan.ID, loan.ReturnDate.Format("2006-01-02"))
	}

	// One loan taken out a month ago, then swept to overdue.
	past := time.Now().UTC().AddDate(0, -1, 0)
	loans.WithClock(func() time.Time { return past })
	overdue, err := loans.Borrow(ctx, service.BorrowRequest{
		BookID:   bookIDs[3],
		ReaderID: readerIDs[3],
	})
	if err != nil {
		log.Fatalf("Failed to borrow: %v", err)
	}
	loans.WithClock(time.Now)

	count, err := loans.Sweep(ctx)
	if err != nil {
		log.Fatalf("Failed to sweep: %v", err)
	}
	fmt.Printf("  loan   %s  overdue (swept %d)\n", overdue.ID, count)

	// One returned loan for history.
	returned, err := loans.Borrow(ctx, service.BorrowRequest{
		BookID:   bookIDs[6],
		ReaderID: readerIDs[4],
	})
	if err != nil {
		log.Fatalf("Failed to borrow: %v", err)
	}
	if _, err := loans.Return(ctx, returned.ID); err != nil {
		log.Fatalf("Failed to return: %v", err)
	}
	fmt.Printf("  loan   %s  returned\n", returned.ID)

	fmt.Printf("\nSeeded %d books, %d readers\n", len(bookIDs), len(readerIDs))
}
