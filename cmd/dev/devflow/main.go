package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"amenitybook/internal/auth"
	"amenitybook/pkg/config"
	"amenitybook/pkg/db"
)

// devflow seeds an amenity and walks one reservation through the approval
// chain against a running API, printing each response.
func main() {
	var (
		baseURL    = flag.String("url", "", "api base url (defaults to http://localhost<HTTP_ADDR>/api)")
		community  = flag.String("community", "", "community id (defaults to a new uuid)")
		name       = flag.String("name", "Clubhouse", "amenity name")
		fee        = flag.String("fee", "150.00", "reservation fee")
		deposit    = flag.String("deposit", "300.00", "deposit")
		janitorial = flag.Bool("janitorial", true, "amenity requires janitorial approval")
		approval   = flag.Bool("approval", true, "amenity requires admin approval")
		date       = flag.String("date", time.Now().AddDate(0, 0, 14).Format("2006-01-02"), "reservation date")
	)
	flag.Parse()

	if *community == "" {
		*community = uuid.NewString()
	}
	feeAmt, err := decimal.NewFromString(*fee)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -fee: %v\n", err)
		os.Exit(2)
	}
	depAmt, err := decimal.NewFromString(*deposit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -deposit: %v\n", err)
		os.Exit(2)
	}

	cfg := config.Load()
	if *baseURL == "" {
		*baseURL = defaultBaseURL(cfg.HTTPAddr)
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if _, err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	var amenityID string
	err = pool.QueryRow(ctx, `
INSERT INTO amenities (community_id, name, capacity, reservation_fee, deposit, janitorial_required, approval_required)
VALUES ($1, $2, 50, $3, $4, $5, $6)
RETURNING id
`, *community, *name, feeAmt.StringFixed(2), depAmt.StringFixed(2), *janitorial, *approval).Scan(&amenityID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed amenity: %v\n", err)
		os.Exit(1)
	}

	verifier := auth.Verifier{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer, Audience: cfg.Auth.Audience}
	mint := func(role auth.Role) string {
		tok, err := auth.Issue(verifier, auth.Principal{UserID: uuid.NewString(), Role: role, CommunityID: *community}, time.Hour, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign: %v\n", err)
			os.Exit(1)
		}
		return tok
	}
	resident, janitor, admin := mint(auth.RoleResident), mint(auth.RoleJanitorial), mint(auth.RoleAdmin)

	c := &client{base: strings.TrimRight(*baseURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	var created struct {
		Reservation struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"reservation"`
	}
	c.call(http.MethodPost, "/reservations", resident, map[string]any{
		"amenityId":      amenityID,
		"date":           *date,
		"setupTimeStart": "17:00",
		"setupTimeEnd":   "18:00",
		"partyTimeStart": "18:00",
		"partyTimeEnd":   "22:00",
		"eventName":      "Birthday party",
		"guestCount":     25,
	}, &created)
	id := created.Reservation.ID
	fmt.Printf("reservation_id=%s status=%s\n", id, created.Reservation.Status)

	if created.Reservation.Status == "NEW" {
		c.call(http.MethodPut, "/reservations/"+id+"/approve", janitor, nil, nil)
	}
	if *approval {
		c.call(http.MethodPut, "/reservations/"+id+"/approve", admin, nil, nil)
	}
	c.call(http.MethodGet, "/reservations/"+id+"/fee-quote", resident, nil, nil)
	c.call(http.MethodGet, "/reservations/"+id+"/events", admin, nil, nil)

	fmt.Printf("\nSeed complete.\n")
	fmt.Printf("community_id=%s amenity_id=%s\n", *community, amenityID)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("- Race overlapping bookings:\n")
	fmt.Printf("  go run ./cmd/dev/race -amenity %s -community %s -date %s -start 18:00 -end 22:00\n", amenityID, *community, *date)
	fmt.Printf("- Resident token (cancel with DELETE %s/reservations/%s):\n  %s\n", c.base, id, resident)
}

type client struct {
	base string
	http *http.Client
}

func (c *client) call(method, path, token string, body any, out any) {
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", method, path, err)
		fmt.Fprintf(os.Stderr, "tip: is the API running, and is HTTP_ADDR set correctly? url=%s\n", c.base)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s -> %d %s\n", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		os.Exit(1)
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			fmt.Fprintf(os.Stderr, "decode: %v\n", err)
			os.Exit(1)
		}
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
