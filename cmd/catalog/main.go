// Command catalog lists candidate Z-machine story files from the IF
// Archive's zcode index, and optionally fetches them into a local
// directory for the workbench to load. It has no role in the text/
// tokenizer core itself - it just supplies story files to exercise it
// against.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"

var zcodeSuffix = regexp.MustCompile(`\.z[12345678]$`)

type candidate struct {
	name string
	url  string
}

func main() {
	outDir := flag.String("out", "stories", "directory to save downloaded story files into")
	fetch := flag.Bool("fetch", false, "download every listed candidate (default: list only)")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}

	candidates, err := listCandidates(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("found %d candidate story files\n", len(candidates))
	for _, c := range candidates {
		fmt.Println(c.name)
	}

	if !*fetch {
		return
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	downloaded, skipped, failed := fetchAll(client, candidates, *outDir)
	fmt.Printf("downloaded: %d, skipped: %d, failed: %d\n", downloaded, skipped, failed)
}

// listCandidates scrapes the archive's definition-list index for links
// ending in a Z-machine version suffix (.z1 through .z8).
func listCandidates(client *http.Client) ([]candidate, error) {
	res, err := client.Get(indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	var candidates []candidate
	doc.Find("dl dt").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if !exists || !zcodeSuffix.MatchString(href) {
			return
		}
		candidates = append(candidates, candidate{
			name: filepath.Base(href),
			url:  "https://www.ifarchive.org" + href,
		})
	})

	return candidates, nil
}

// fetchAll downloads every candidate not already present in dir, being
// gentle to the archive's server between requests.
func fetchAll(client *http.Client, candidates []candidate, dir string) (downloaded, skipped, failed int) {
	for _, c := range candidates {
		dest := filepath.Join(dir, c.name)
		if _, err := os.Stat(dest); err == nil {
			skipped++
			continue
		}

		if err := fetchOne(client, c, dest); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", c.name, err)
			failed++
			continue
		}

		downloaded++
		time.Sleep(100 * time.Millisecond)
	}
	return
}

func fetchOne(client *http.Client, c candidate, dest string) error {
	res, err := client.Get(c.url)
	if err != nil {
		return err
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	return os.WriteFile(dest, data, 0644)
}
