package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"amenitybook/internal/auth"
	"amenitybook/pkg/config"
)

// race fires n overlapping reservation requests at once against a running
// API and reports how many were accepted. Anything but exactly one 201 is a
// double booking or a lost request.
func main() {
	var (
		baseURL    = flag.String("url", "", "api base url (defaults to http://localhost<HTTP_ADDR>/api)")
		amenityID  = flag.String("amenity", "", "amenity id to book")
		community  = flag.String("community", "", "community id of the amenity")
		date       = flag.String("date", time.Now().AddDate(0, 1, 0).Format("2006-01-02"), "reservation date")
		partyStart = flag.String("start", "18:00", "party start")
		partyEnd   = flag.String("end", "21:00", "party end")
		n          = flag.Int("n", 20, "number of concurrent requests")
	)
	flag.Parse()

	if *community == "" {
		fmt.Fprintln(os.Stderr, "missing -community")
		os.Exit(2)
	}
	if *amenityID == "" {
		fmt.Fprintln(os.Stderr, "missing -amenity")
		os.Exit(2)
	}

	cfg := config.Load()
	if *baseURL == "" {
		*baseURL = defaultBaseURL(cfg.HTTPAddr)
	}
	verifier := auth.Verifier{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer, Audience: cfg.Auth.Audience}

	type result struct {
		status int
		code   string
		err    error
	}
	results := make([]result, *n)
	start := make(chan struct{})
	c := &http.Client{Timeout: 30 * time.Second}

	var wg sync.WaitGroup
	for i := 0; i < *n; i++ {
		tok, err := auth.Issue(verifier, auth.Principal{
			UserID:      uuid.NewString(),
			Role:        auth.RoleResident,
			CommunityID: *community,
		}, time.Hour, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign: %v\n", err)
			os.Exit(1)
		}
		body, _ := json.Marshal(map[string]any{
			"amenityId":      *amenityID,
			"date":           *date,
			"setupTimeStart": *partyStart,
			"setupTimeEnd":   *partyEnd,
			"partyTimeStart": *partyStart,
			"partyTimeEnd":   *partyEnd,
			"eventName":      fmt.Sprintf("race %d", i),
			"guestCount":     1,
		})

		wg.Add(1)
		go func(i int, tok string, body []byte) {
			defer wg.Done()
			<-start

			req, _ := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/reservations", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tok)
			resp, err := c.Do(req)
			if err != nil {
				results[i] = result{err: err}
				return
			}
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)

			var env struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			_ = json.Unmarshal(b, &env)
			results[i] = result{status: resp.StatusCode, code: env.Error.Code}
		}(i, tok, body)
	}

	close(start)
	wg.Wait()

	counts := map[string]int{}
	created := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			counts["transport error"]++
		case r.status == http.StatusCreated:
			created++
		default:
			counts[fmt.Sprintf("%d %s", r.status, r.code)]++
		}
	}

	fmt.Printf("requests=%d created=%d\n", *n, created)
	for k, v := range counts {
		fmt.Printf("  %s: %d\n", k, v)
	}
	if created != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one reservation to be created")
		os.Exit(1)
	}
}

func defaultBaseURL(httpAddr string) string {
	addr := strings.TrimSpace(httpAddr)
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr + "/api"
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0") + "/api"
	}
	if addr != "" {
		return "http://" + addr + "/api"
	}
	return "http://localhost:8080/api"
}
