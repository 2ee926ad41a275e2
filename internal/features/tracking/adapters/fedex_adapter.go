package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"whereis/internal/core/config"
	"whereis/internal/core/logger"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
	"whereis/internal/features/tracking/statusmap"

	"go.uber.org/zap"
)

const (
	fedexWhom         = "FedEx"
	fedexDataProvider = "FedEx"
	fedexCustomerLoc  = "Customer location"
)

// FedExAdapter tracks FedEx shipments through the Track API.
type FedExAdapter struct {
	client   *http.Client
	trackURL string
	tokens   *TokenCache
	mapper   *statusmap.Mapper
	statuses *domain.StatusRegistry
	logger   *zap.Logger
	now      func() time.Time
}

// NewFedExAdapter creates a FedExAdapter. Tokens are exchanged with the same client.
func NewFedExAdapter(cfg config.FedExConfig, client *http.Client, mapper *statusmap.Mapper, statuses *domain.StatusRegistry) *FedExAdapter {
	return &FedExAdapter{
		client:   client,
		trackURL: cfg.TrackURL,
		tokens:   NewTokenCache(NewClientCredentialsFetcher(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, client)),
		mapper:   mapper,
		statuses: statuses,
		logger:   logger.Named("fedex"),
		now:      time.Now,
	}
}

// FedExPayload is a decoded Track API response.
type FedExPayload struct {
	body     json.RawMessage
	response fedexTrackResponse
}

// Carrier implements domain.RawPayload.
func (p *FedExPayload) Carrier() domain.Carrier { return domain.CarrierFedEx }

// Raw implements domain.RawPayload.
func (p *FedExPayload) Raw() json.RawMessage { return p.body }

type fedexTrackResponse struct {
	Output struct {
		CompleteTrackResults []struct {
			TrackingNumber string             `json:"trackingNumber"`
			TrackResults   []fedexTrackResult `json:"trackResults"`
		} `json:"completeTrackResults"`
	} `json:"output"`
	Errors []fedexError `json:"errors"`
}

type fedexTrackResult struct {
	ShipperInformation struct {
		Address fedexAddress `json:"address"`
	} `json:"shipperInformation"`
	RecipientInformation struct {
		Address fedexAddress `json:"address"`
	} `json:"recipientInformation"`
	// Scan events are kept raw: they are the records fingerprinted and stored.
	ScanEvents []json.RawMessage `json:"scanEvents"`
	Error      *fedexError       `json:"error"`
}

type fedexAddress struct {
	City                string `json:"city"`
	StateOrProvinceCode string `json:"stateOrProvinceCode"`
	CountryName         string `json:"countryName"`
}

// String joins the address parts with single spaces, keeping empty parts.
func (a fedexAddress) String() string {
	return a.City + " " + a.StateOrProvinceCode + " " + a.CountryName
}

type fedexScanEvent struct {
	Date              string       `json:"date"`
	EventType         string       `json:"eventType"`
	EventDescription  string       `json:"eventDescription"`
	DerivedStatusCode string       `json:"derivedStatusCode"`
	LocationType      string       `json:"locationType"`
	ScanLocation      fedexAddress `json:"scanLocation"`
}

type fedexError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type fedexTrackRequest struct {
	IncludeDetailedScans bool                `json:"includeDetailedScans"`
	TrackingInfo         []fedexTrackingInfo `json:"trackingInfo"`
}

type fedexTrackingInfo struct {
	TrackingNumberInfo struct {
		TrackingNumber string `json:"trackingNumber"`
	} `json:"trackingNumberInfo"`
}

// Carrier implements ports.CarrierAdapter.
func (a *FedExAdapter) Carrier() domain.Carrier {
	return domain.CarrierFedEx
}

// RequiredParams implements ports.CarrierAdapter. FedEx needs no extra parameters.
func (a *FedExAdapter) RequiredParams() []string {
	return nil
}

// Fetch calls the Track API for trackingNumber.
func (a *FedExAdapter) Fetch(ctx context.Context, trackingNumber string, _ map[string]string) (domain.RawPayload, error) {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryTimeout, "token exchange did not complete in time", err)
		}
		return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryAuthentication, "token exchange failed", err)
	}

	info := fedexTrackingInfo{}
	info.TrackingNumberInfo.TrackingNumber = trackingNumber
	reqBody, err := json.Marshal(fedexTrackRequest{
		IncludeDetailedScans: true,
		TrackingInfo:         []fedexTrackingInfo{info},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal track request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.trackURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create track request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-locale", "en_US")
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := doCarrierRequest(a.client, domain.CarrierFedEx, req)
	if err != nil {
		if ports.CategoryOf(err) == ports.CategoryAuthentication {
			a.tokens.Invalidate()
		}
		return nil, err
	}

	payload := &FedExPayload{body: body}
	if err := json.Unmarshal(body, &payload.response); err != nil {
		return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData, "undecodable track response", err)
	}

	if _, err := payload.trackResult(); err != nil {
		return nil, err
	}

	return payload, nil
}

// trackResult returns the single track result of the response.
func (p *FedExPayload) trackResult() (*fedexTrackResult, error) {
	resp := &p.response
	if len(resp.Output.CompleteTrackResults) == 0 {
		if len(resp.Errors) > 0 {
			return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData,
				resp.Errors[0].Code+": "+resp.Errors[0].Message, nil)
		}
		return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData, "response has no completeTrackResults", nil)
	}

	complete := resp.Output.CompleteTrackResults[0]
	if len(complete.TrackResults) == 0 {
		return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData, "response has no trackResults", nil)
	}

	result := &complete.TrackResults[0]
	if result.Error != nil && result.Error.Code != "" {
		category := ports.CategoryBadData
		if strings.Contains(result.Error.Code, "NOTFOUND") {
			category = ports.CategoryNotFound
		}
		return nil, ports.NewCarrierError(domain.CarrierFedEx, category, result.Error.Code+": "+result.Error.Message, nil)
	}

	return result, nil
}

// Normalize converts a FedExPayload into a timeline in ascending time order.
func (a *FedExAdapter) Normalize(payload domain.RawPayload, method domain.UpdateMethod) (*domain.Timeline, error) {
	p, ok := payload.(*FedExPayload)
	if !ok {
		return nil, fmt.Errorf("fedex adapter cannot normalize %s payload", payload.Carrier())
	}

	result, err := p.trackResult()
	if err != nil {
		return nil, err
	}
	trackingNumber := p.response.Output.CompleteTrackResults[0].TrackingNumber

	timeline := &domain.Timeline{
		Origin:      result.ShipperInformation.Address.String(),
		Destination: result.RecipientInformation.Address.String(),
		Source:      p.body,
		Events:      make([]domain.Event, 0, len(result.ScanEvents)),
	}
	updateTime := a.now().UTC()

	// Scan events are listed newest first.
	for i := len(result.ScanEvents) - 1; i >= 0; i-- {
		raw := result.ScanEvents[i]

		var scan fedexScanEvent
		if err := json.Unmarshal(raw, &scan); err != nil {
			return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData, "undecodable scan event", err)
		}

		when, err := time.Parse(time.RFC3339, scan.Date)
		if err != nil {
			return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData, "invalid scan event date "+scan.Date, err)
		}

		fingerprint, err := domain.Fingerprint(domain.CarrierFedEx, raw)
		if err != nil {
			return nil, ports.NewCarrierError(domain.CarrierFedEx, ports.CategoryBadData, "scan event cannot be fingerprinted", err)
		}

		status := a.mapper.Map(domain.CarrierFedEx, scan.DerivedStatusCode, scan.EventType)

		where := scan.ScanLocation.String()
		if strings.TrimSpace(where) == "" {
			where = ""
			if scan.LocationType == "CUSTOMER" {
				where = fedexCustomerLoc
			}
		}

		timeline.Events = append(timeline.Events, domain.Event{
			Fingerprint:    fingerprint,
			Carrier:        domain.CarrierFedEx,
			TrackingNumber: trackingNumber,
			Status:         status,
			What:           a.statuses.Describe(status),
			When:           when,
			Where:          where,
			Whom:           fedexWhom,
			Notes:          scan.EventDescription,
			Provenance: domain.Provenance{
				DataProvider: fedexDataProvider,
				UpdateMethod: method,
				UpdateTime:   updateTime,
			},
			Source: raw,
		})
	}

	slices.SortStableFunc(timeline.Events, func(x, y domain.Event) int {
		return x.When.Compare(y.When)
	})

	a.logger.Debug("Normalized FedEx timeline",
		zap.String("tracking_number", trackingNumber),
		zap.Int("events", len(timeline.Events)),
	)

	return timeline, nil
}
