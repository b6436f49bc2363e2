package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	overviewPath = "/api/v1/monitoring/overview"
	adminHeader  = "X-Admin-Secret"
)

// Overview fetches the server-side monitoring overview and writes it to out
// as indented JSON.
func Overview(client *http.Client, baseURL, adminSecret string, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+overviewPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set(adminHeader, adminSecret)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch overview: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("overview returned %d: %s", resp.StatusCode, body)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return err
	}

	fmt.Fprintln(out, "Server overview:")
	_, err = pretty.WriteTo(out)
	fmt.Fprintln(out)
	return err
}
