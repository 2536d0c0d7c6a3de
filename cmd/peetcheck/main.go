// Command peetcheck sends one request through a profile to tls.peet.ws and
// prints the JA3/JA4/Akamai/Peetprint fingerprints the server observed, for
// checking a Provider's wire fingerprint against a real browser's.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	http "github.com/saucesteals/fhttp"

	"github.com/outrider-labs/impersonate"
	_ "github.com/outrider-labs/impersonate/internal/slogx"
	"github.com/outrider-labs/impersonate/profiles"
)

func main() {
	name := flag.String("profile", "edge_137_win", "profile name, e.g. chrome_131_windows or firefox_133_linux")
	flag.Parse()

	provider, err := profiles.Lookup(*name)
	if err != nil {
		slog.Error("unknown profile", "name", *name, "error", err)
		os.Exit(1)
	}

	client, err := impersonate.NewClient(provider)
	if err != nil {
		slog.Error("building client", "error", err)
		os.Exit(1)
	}

	req, _ := http.NewRequest(http.MethodGet, "https://tls.peet.ws/api/clean", nil)
	req.Header.Add("rtt", "50")
	req.Header.Add("accept", "text/html,*/*")
	req.Header.Add("x-requested-with", "XMLHttpRequest")
	req.Header.Add("downlink", "3.9")
	req.Header.Add("ect", "4g")
	req.Header.Add("sec-fetch-site", "same-origin")
	req.Header.Add("sec-fetch-mode", "cors")
	req.Header.Add("sec-fetch-dest", "empty")
	req.Header.Add("accept-language", "en,en_US;q=0.9")
	// the provider's default headers supply user-agent, sec-ch-ua,
	// sec-ch-ua-mobile and sec-ch-ua-platform; the client's Decompress layer
	// supplies accept-encoding.

	res, err := client.Do(req)
	if err != nil {
		slog.Error("request failed", "error", err)
		os.Exit(1)
	}
	defer res.Body.Close()

	var response peetCleanResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		slog.Error("decoding peet.ws response", "error", err)
		os.Exit(1)
	}

	slog.Info("request", "method", req.Method, "url", req.URL.String(), "profile", provider.Name)
	for key, values := range req.Header {
		if key == http.HeaderOrderKey || key == http.PHeaderOrderKey {
			continue
		}
		slog.Info("request header", "key", key, "value", values[0])
	}

	slog.Info("JA3", "value", response.JA3)
	slog.Info("JA3 hash", "value", response.JA3Hash)
	slog.Info("JA4", "value", response.JA4)
	slog.Info("JA4-R", "value", response.JA4R)
	slog.Info("Akamai", "value", response.Akamai)
	slog.Info("Akamai hash", "value", response.AkamaiHash)
	slog.Info("Peetprint", "value", response.Peetprint)
	slog.Info("Peetprint hash", "value", response.PeetprintHash)
}

type peetCleanResponse struct {
	JA3           string `json:"ja3"`
	JA3Hash       string `json:"ja3_hash"`
	JA4           string `json:"ja4"`
	JA4R          string `json:"ja4_r"`
	Akamai        string `json:"akamai"`
	AkamaiHash    string `json:"akamai_hash"`
	Peetprint     string `json:"peetprint"`
	PeetprintHash string `json:"peetprint_hash"`
}
