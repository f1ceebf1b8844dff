//go:build ignore

// Package main generates a synthetic patristic corpus for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -authors 40 -output testdata/bench/corpus.jsonl
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numAuthors = flag.Int("authors", 40, "Number of authors to generate")
	maxWorks   = flag.Int("works", 4, "Maximum works per author")
	maxChaps   = flag.Int("chapters", 25, "Maximum chapters per work")
	sentences  = flag.Int("sentences", 12, "Sentences per chapter")
	outputPath = flag.String("output", "testdata/bench/corpus.jsonl", "Output JSONL file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

type author struct {
	Name     string `json:"name"`
	Dates    string `json:"dates,omitempty"`
	IsSaint  bool   `json:"is_saint"`
	IsDoctor bool   `json:"is_doctor"`
}

type work struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type chapter struct {
	Number  int    `json:"number"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type document struct {
	Author   author    `json:"author"`
	Work     work      `json:"work"`
	Chapters []chapter `json:"chapters"`
}

var (
	names = []string{
		"Ignatius", "Polycarp", "Irenaeus", "Hippolytus", "Cyprian", "Athanasius",
		"Basil", "Gregory", "Ambrose", "Jerome", "Hilary", "Ephrem", "Cyril",
		"Leo", "Justin", "Clement", "Origen", "Tertullian", "Lactantius", "Eusebius",
	}
	sees = []string{
		"Antioch", "Smyrna", "Lyons", "Rome", "Carthage", "Alexandria", "Caesarea",
		"Nyssa", "Nazianzus", "Milan", "Poitiers", "Jerusalem", "Edessa",
	}
	titles = []string{
		"Against Heresies", "On the Incarnation", "On the Holy Spirit", "Catechetical Lectures",
		"On the Unity of the Church", "Homilies on the Gospel", "On the Trinity",
		"Apology", "Exhortation to Martyrdom", "On Prayer", "On Repentance",
	}
	subjects = []string{
		"the Word of God", "the grace of the Spirit", "the blessed apostles", "the holy church",
		"the faithful", "the martyrs", "our Lord Jesus Christ", "the Father almighty",
		"the illustrious apostles", "the heretics", "the elders", "the catechumens",
	}
	verbs = []string{
		"teaches", "confesses", "proclaims", "preserves", "rebukes", "illumines",
		"sanctifies", "gathers", "exhorts", "foretold", "bears witness to",
	}
	objects = []string{
		"the rule of faith", "the mystery of salvation", "the resurrection of the flesh",
		"the unity of the body", "the tradition of the fathers", "the sacred scriptures",
		"eternal life", "the kingdom of heaven", "the love of God", "the peace of Christ",
	}
	clauses = []string{
		"and this we have received", "as it is written", "through much tribulation",
		"in every place", "without ceasing", "even unto death", "by the will of God",
	}
)

func pick(r *rand.Rand, xs []string) string {
	return xs[r.Intn(len(xs))]
}

func sentence(r *rand.Rand) string {
	s := fmt.Sprintf("%s %s %s", pick(r, subjects), pick(r, verbs), pick(r, objects))
	if r.Intn(3) == 0 {
		s += ", " + pick(r, clauses)
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func generate(r *rand.Rand, idx int) document {
	name := fmt.Sprintf("%s of %s", pick(r, names), pick(r, sees))
	if idx >= len(names) {
		name = fmt.Sprintf("%s %d", name, idx)
	}
	century := 1 + r.Intn(8)

	doc := document{
		Author: author{
			Name:     name,
			Dates:    fmt.Sprintf("d. c. %d", century*100-r.Intn(100)),
			IsSaint:  r.Intn(3) > 0,
			IsDoctor: r.Intn(6) == 0,
		},
	}

	title := pick(r, titles)
	doc.Work = work{
		Title: title,
		URL:   fmt.Sprintf("https://example.org/fathers/%04d%02d.htm", idx, r.Intn(100)),
	}

	n := 1 + r.Intn(*maxChaps)
	for i := 1; i <= n; i++ {
		var b strings.Builder
		for j := 0; j < *sentences; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(sentence(r))
		}
		doc.Chapters = append(doc.Chapters, chapter{
			Number:  i,
			Title:   fmt.Sprintf("Chapter %d", i),
			Content: b.String(),
		})
	}
	return doc
}

func main() {
	flag.Parse()
	r := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	docs, chapters := 0, 0
	for a := 0; a < *numAuthors; a++ {
		works := 1 + r.Intn(*maxWorks)
		for k := 0; k < works; k++ {
			doc := generate(r, a)
			if err := enc.Encode(doc); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing document: %v\n", err)
				os.Exit(1)
			}
			docs++
			chapters += len(doc.Chapters)
		}
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing output: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d documents (%d chapters) in %s\n", docs, chapters, *outputPath)
	fmt.Printf("Index with: patrology index %s\n", *outputPath)
}
