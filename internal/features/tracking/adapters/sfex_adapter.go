package adapters

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"whereis/internal/core/config"
	"whereis/internal/core/logger"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
	"whereis/internal/features/tracking/statusmap"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sfexServiceCode  = "EXP_RECE_SEARCH_ROUTES"
	sfexResultOK     = "A1000"
	sfexWhom         = "SFEx"
	sfexDataProvider = "SF Express"
	sfexTimeLayout   = "2006-01-02 15:04:05"

	// ParamPhone holds the last digits of the consignee phone number.
	ParamPhone = "phone"
)

// sfexZone is the zone of SF Express accept times (UTC+8).
var sfexZone = time.FixedZone("CST", 8*60*60)

// SFExpressAdapter tracks SF Express shipments through the route query service.
type SFExpressAdapter struct {
	client    *http.Client
	url       string
	partnerID string
	checkWord string
	mapper    *statusmap.Mapper
	statuses  *domain.StatusRegistry
	logger    *zap.Logger
	now       func() time.Time
}

// NewSFExpressAdapter creates a SFExpressAdapter.
func NewSFExpressAdapter(cfg config.SFExpressConfig, client *http.Client, mapper *statusmap.Mapper, statuses *domain.StatusRegistry) *SFExpressAdapter {
	return &SFExpressAdapter{
		client:    client,
		url:       cfg.URL,
		partnerID: cfg.PartnerID,
		checkWord: cfg.CheckWord,
		mapper:    mapper,
		statuses:  statuses,
		logger:    logger.Named("sfex"),
		now:       time.Now,
	}
}

// SFExpressPayload is a decoded route query response.
type SFExpressPayload struct {
	body   json.RawMessage
	mailNo string
	routes []json.RawMessage
}

// Carrier implements domain.RawPayload.
func (p *SFExpressPayload) Carrier() domain.Carrier { return domain.CarrierSFExpress }

// Raw implements domain.RawPayload.
func (p *SFExpressPayload) Raw() json.RawMessage { return p.body }

type sfexEnvelope struct {
	APIErrorMsg   string `json:"apiErrorMsg"`
	APIResponseID string `json:"apiResponseID"`
	APIResultCode string `json:"apiResultCode"`
	// APIResultData is a JSON document encoded as a string.
	APIResultData string `json:"apiResultData"`
}

type sfexResultData struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	MsgData   struct {
		RouteResps []struct {
			MailNo string            `json:"mailNo"`
			Routes []json.RawMessage `json:"routes"`
		} `json:"routeResps"`
	} `json:"msgData"`
}

type sfexRoute struct {
	AcceptTime          string   `json:"acceptTime"`
	AcceptAddress       string   `json:"acceptAddress"`
	Remark              string   `json:"remark"`
	OpCode              sfexCode `json:"opCode"`
	SecondaryStatusCode sfexCode `json:"secondaryStatusCode"`
}

// sfexCode accepts codes sent either as JSON strings or numbers and keeps
// their integer form, so "030" and 30 both become "30".
type sfexCode string

func (c *sfexCode) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = ""
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*c = sfexCode(s)
		return nil
	}
	*c = sfexCode(strconv.Itoa(n))
	return nil
}

type sfexMsgData struct {
	TrackingType   int    `json:"trackingType"`
	TrackingNumber string `json:"trackingNumber"`
	CheckPhoneNo   string `json:"checkPhoneNo"`
}

// Carrier implements ports.CarrierAdapter.
func (a *SFExpressAdapter) Carrier() domain.Carrier {
	return domain.CarrierSFExpress
}

// RequiredParams implements ports.CarrierAdapter. SF Express verifies the consignee phone.
func (a *SFExpressAdapter) RequiredParams() []string {
	return []string{ParamPhone}
}

// Fetch queries the routes of trackingNumber.
func (a *SFExpressAdapter) Fetch(ctx context.Context, trackingNumber string, params map[string]string) (domain.RawPayload, error) {
	msgData, err := json.Marshal(sfexMsgData{
		TrackingType:   1,
		TrackingNumber: trackingNumber,
		CheckPhoneNo:   params[ParamPhone],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route query: %w", err)
	}

	timestamp := strconv.FormatInt(a.now().UnixMilli(), 10)
	form := url.Values{
		"partnerID":   {a.partnerID},
		"requestID":   {uuid.NewString()},
		"serviceCode": {sfexServiceCode},
		"timestamp":   {timestamp},
		"msgDigest":   {sfexDigest(string(msgData), timestamp, a.checkWord)},
		"msgData":     {string(msgData)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create route query: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := doCarrierRequest(a.client, domain.CarrierSFExpress, req)
	if err != nil {
		return nil, err
	}

	return decodeSFExpressPayload(body)
}

func decodeSFExpressPayload(body []byte) (*SFExpressPayload, error) {
	var envelope sfexEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData, "undecodable response", err)
	}
	if envelope.APIResultCode != sfexResultOK {
		return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData,
			fmt.Sprintf("result code %q: %s", envelope.APIResultCode, envelope.APIErrorMsg), nil)
	}

	var data sfexResultData
	if err := json.Unmarshal([]byte(envelope.APIResultData), &data); err != nil {
		return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData, "undecodable apiResultData", err)
	}
	if len(data.MsgData.RouteResps) == 0 {
		msg := "response has no routeResps"
		if data.ErrorCode != "" {
			msg = data.ErrorCode + ": " + data.ErrorMsg
		}
		return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData, msg, nil)
	}

	routeResp := data.MsgData.RouteResps[0]
	if len(routeResp.Routes) == 0 {
		return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryNotFound, "no routes for "+routeResp.MailNo, nil)
	}

	return &SFExpressPayload{
		body:   body,
		mailNo: routeResp.MailNo,
		routes: routeResp.Routes,
	}, nil
}

// sfexDigest signs a request: base64(md5(encodeURIComponent(msgData + timestamp + checkWord))).
func sfexDigest(msgData, timestamp, checkWord string) string {
	sum := md5.Sum([]byte(encodeURIComponent(msgData + timestamp + checkWord)))
	return base64.StdEncoding.EncodeToString(sum[:])
}

var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s like the ECMAScript function of the same name,
// which is what the SF Express gateway hashes.
func encodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}

// Normalize converts a SFExpressPayload into a timeline sorted by accept time.
func (a *SFExpressAdapter) Normalize(payload domain.RawPayload, method domain.UpdateMethod) (*domain.Timeline, error) {
	p, ok := payload.(*SFExpressPayload)
	if !ok {
		return nil, fmt.Errorf("sfex adapter cannot normalize %s payload", payload.Carrier())
	}

	type decodedRoute struct {
		raw   json.RawMessage
		route sfexRoute
		when  time.Time
	}

	routes := make([]decodedRoute, 0, len(p.routes))
	for _, raw := range p.routes {
		var route sfexRoute
		if err := json.Unmarshal(raw, &route); err != nil {
			return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData, "undecodable route", err)
		}
		when, err := time.ParseInLocation(sfexTimeLayout, route.AcceptTime, sfexZone)
		if err != nil {
			return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData, "invalid acceptTime "+route.AcceptTime, err)
		}
		routes = append(routes, decodedRoute{raw: raw, route: route, when: when})
	}

	slices.SortStableFunc(routes, func(x, y decodedRoute) int {
		return x.when.Compare(y.when)
	})

	timeline := &domain.Timeline{
		Source: p.body,
		Events: make([]domain.Event, 0, len(routes)),
	}
	updateTime := a.now().UTC()

	for _, r := range routes {
		fingerprint, err := domain.Fingerprint(domain.CarrierSFExpress, r.raw)
		if err != nil {
			return nil, ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryBadData, "route cannot be fingerprinted", err)
		}

		status := a.mapper.Map(domain.CarrierSFExpress, string(r.route.SecondaryStatusCode), string(r.route.OpCode))

		timeline.Events = append(timeline.Events, domain.Event{
			Fingerprint:    fingerprint,
			Carrier:        domain.CarrierSFExpress,
			TrackingNumber: p.mailNo,
			Status:         status,
			What:           a.statuses.Describe(status),
			When:           r.when,
			Where:          r.route.AcceptAddress,
			Whom:           sfexWhom,
			Notes:          r.route.Remark,
			Provenance: domain.Provenance{
				DataProvider: sfexDataProvider,
				UpdateMethod: method,
				UpdateTime:   updateTime,
			},
			Source: r.raw,
		})
	}

	a.logger.Debug("Normalized SF Express timeline",
		zap.String("tracking_number", p.mailNo),
		zap.Int("events", len(timeline.Events)),
	)

	return timeline, nil
}
