package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// soilGridsURL: una sola fetch all'avvio, mai ad ogni tick.
const soilGridsURL = "https://rest.isric.org/soilgrids/v2.0/properties/query?lat=%f&lon=%f&property=wv0010"

type soilGridsResp struct {
	Properties struct {
		Layers []struct {
			Name   string `json:"name"`
			Depths []struct {
				Values map[string]*float64 `json:"values"`
			} `json:"depths"`
		} `json:"layers"`
	} `json:"properties"`
}

// SoilGrids legge l'umidità volumetrica del suolo per seedare il campo.
type SoilGrids struct {
	client  *http.Client
	baseURL string
}

func NewSoilGrids() *SoilGrids {
	return &SoilGrids{client: &http.Client{Timeout: 8 * time.Second}, baseURL: soilGridsURL}
}

// Moisture ritorna l'umidità in [0..1]. Riprova una volta su 429 e 5xx.
func (g *SoilGrids) Moisture(ctx context.Context, lat, lon float64) (float64, error) {
	url := fmt.Sprintf(g.baseURL, lat, lon)
	var out float64
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "serosis-simulator/1.0")
		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("soilgrids HTTP %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return backoff.Permanent(fmt.Errorf("soilgrids HTTP %d: %s", resp.StatusCode, string(b)))
		}
		var r soilGridsResp
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&r); err != nil {
			return backoff.Permanent(fmt.Errorf("soilgrids decode: %w", err))
		}
		v, ok := r.firstValue()
		if !ok {
			return backoff.Permanent(fmt.Errorf("soilgrids: moisture field not found"))
		}
		out = normalizeWV(v)
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(700*time.Millisecond), 1), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return -1, err
	}
	return out, nil
}

func (r soilGridsResp) firstValue() (float64, bool) {
	if len(r.Properties.Layers) == 0 || len(r.Properties.Layers[0].Depths) == 0 {
		return 0, false
	}
	vals := r.Properties.Layers[0].Depths[0].Values
	for _, k := range []string{"Q0.5", "mean", "Q0.95", "Q0.05"} {
		if v := vals[k]; v != nil {
			return *v, true
		}
	}
	return 0, false
}

// normalizeWV: i layer wv sono spesso in millesimi di m3/m3 (420 => 0.420).
func normalizeWV(x float64) float64 {
	if x > 1.5 {
		x = x / 1000.0
	}
	return clamp01(x)
}
