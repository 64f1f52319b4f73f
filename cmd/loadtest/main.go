// Command loadtest drives synthetic uploads against a running coordinator,
// using a Zipfian filename distribution so a small set of "popular"
// filenames collide (exercising scenario 2 of spec §8 — repeat upload,
// metadata ABORT) far more often than a uniform distribution would.
// Adapted from the teacher's benchmark/ycsb.go YCSBClient, stripped of its
// sharded-KV transaction generation (this system has nothing resembling a
// TXOpt list — every upload is exactly one file).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pingcap/go-ycsb/pkg/generator"
)

func main() {
	coordinatorAddr := flag.String("coordinator", "http://localhost:8080", "coordinator base URL")
	token := flag.String("token", "", "bearer token for /files/upload")
	concurrency := flag.Int("concurrency", 4, "number of concurrent uploaders")
	numFiles := flag.Int("files", 200, "size of the synthetic filename space")
	requests := flag.Int("requests", 1000, "total number of upload requests to issue")
	skew := flag.Float64("skew", 0.99, "Zipfian skew parameter")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "loadtest: -token is required")
		os.Exit(1)
	}

	zip := generator.NewZipfianWithRange(0, int64(*numFiles-1), *skew)
	seen := mapset.NewSet() // filenames already attempted, for reporting collision rate

	var committed, aborted int64
	var wg sync.WaitGroup
	jobs := make(chan int, *concurrency)

	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for range jobs {
				idx := zip.Next(r)
				filename := fmt.Sprintf("file-%d.dat", idx)
				seen.Add(filename)
				ok := upload(*coordinatorAddr, *token, filename, []byte(fmt.Sprintf("payload-%d", r.Int63())))
				if ok {
					atomic.AddInt64(&committed, 1)
				} else {
					atomic.AddInt64(&aborted, 1)
				}
			}
		}(w)
	}

	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("committed=%d aborted=%d distinct_filenames=%d\n", committed, aborted, seen.Cardinality())
}

func upload(baseURL, token, filename string, data []byte) bool {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return false
	}
	if _, err := part.Write(data); err != nil {
		return false
	}
	if err := mw.Close(); err != nil {
		return false
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/files/upload", &body)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}
