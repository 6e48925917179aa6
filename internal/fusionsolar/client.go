package fusionsolar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	fleet "solarfleet/internal/fleet/domain"
)

// Client is a minimal FusionSolar web client bound to one authenticated
// account session. It implements fleet.VendorClient.
type Client struct {
	baseURL string
	client  *http.Client
	roarand string
	logger  *log.Logger
}

// Config configures a vendor connection for one account.
type Config struct {
	Username  string
	Password  string
	Subdomain string

	// BaseURL overrides the subdomain-derived endpoint, mainly for tests.
	BaseURL string
	Timeout time.Duration
	Logger  *log.Logger
}

var (
	// ErrAuth marks a failed login. Terminal for the account's cycle.
	ErrAuth = errors.New("fusionsolar: authentication failed")
	// ErrCaptchaRequired marks a login rejected pending captcha solving.
	ErrCaptchaRequired = errors.New("fusionsolar: captcha required")

	errNotFound = errors.New("fusionsolar: not found")
)

// APIError is a non-auth vendor API failure.
type APIError struct {
	Op     string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fusionsolar: %s: http %d", e.Op, e.Status)
}

// Dial authenticates a credential and returns a live session. The session
// re-validates itself via KeepAlive; it is never explicitly logged out.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("fusionsolar: empty credentials")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Subdomain == "" {
			return nil, errors.New("fusionsolar: empty subdomain")
		}
		baseURL = fmt.Sprintf("https://%s.fusionsolar.huawei.com", cfg.Subdomain)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout, Jar: jar},
		logger:  cfg.Logger,
	}
	if err := c.login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, err
	}
	// The first keepalive hands back the csrf token used on every call.
	if err := c.KeepAlive(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return c, nil
}

// Dialer adapts Dial to the fleet capability contract.
func Dialer(timeout time.Duration, logger *log.Logger) fleet.DialFunc {
	return func(ctx context.Context, cred fleet.Credential) (fleet.VendorClient, error) {
		return Dial(ctx, Config{
			Username:  cred.Name,
			Password:  cred.Password,
			Subdomain: cred.Subdomain,
			Timeout:   timeout,
			Logger:    logger,
		})
	}
}

type loginResponse struct {
	ErrorCode json.Number `json:"errorCode"`
	ErrorMsg  string      `json:"errorMsg"`
}

func (c *Client) login(ctx context.Context, username, password string) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	path := "/unisso/v2/validateUser.action?timeStamp=" + now + "&nonce=" + now
	body := map[string]any{
		"organizationName": "",
		"username":         username,
		"password":         password,
	}
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	code := resp.ErrorCode.String()
	if code != "" && code != "0" {
		msg := strings.ToLower(resp.ErrorMsg)
		if strings.Contains(msg, "captcha") || strings.Contains(msg, "verifycode") {
			return fmt.Errorf("%w: %s", ErrCaptchaRequired, resp.ErrorMsg)
		}
		return fmt.Errorf("%w: code %s: %s", ErrAuth, code, resp.ErrorMsg)
	}
	return nil
}

type keepAliveResponse struct {
	Payload string `json:"payload"`
}

// KeepAlive refreshes the session and rotates the csrf token.
func (c *Client) KeepAlive(ctx context.Context) error {
	var resp keepAliveResponse
	if err := c.doJSON(ctx, http.MethodGet, "/rest/dpcloud/auth/v1/keep-alive", nil, nil, &resp); err != nil {
		return err
	}
	if resp.Payload != "" {
		c.roarand = resp.Payload
	}
	return nil
}

type stationRecord struct {
	Name              string    `json:"name"`
	DN                string    `json:"dn"`
	InstalledCapacity flexFloat `json:"installedCapacity"`
	PlantStatus       string    `json:"plantStatus"`
}

type stationListResponse struct {
	Success bool `json:"success"`
	Data    struct {
		List      []stationRecord `json:"list"`
		Total     int             `json:"total"`
		PageCount int             `json:"pageCount"`
	} `json:"data"`
}

const stationPageSize = 50

// StationList fetches every station visible to the account, walking the
// paginated endpoint until one of the vendor's stop conditions holds.
func (c *Client) StationList(ctx context.Context) ([]fleet.PlantRecord, error) {
	var all []fleet.PlantRecord
	for page := 1; ; page++ {
		body := map[string]any{
			"curPage":           page,
			"pageSize":          stationPageSize,
			"gridConnectedTime": "",
			"queryTime":         dayStartSec() * 1000,
			"timeZone":          2,
			"sortId":            "createTime",
			"sortDir":           "DESC",
			"locale":            "en_US",
		}
		var resp stationListResponse
		if err := c.doJSON(ctx, http.MethodPost, "/rest/pvms/web/station/v1/station/station-list", nil, body, &resp); err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, errors.New("fusionsolar: station list rejected")
		}
		if len(resp.Data.List) == 0 {
			break
		}
		for _, station := range resp.Data.List {
			all = append(all, fleet.PlantRecord{
				Name:                station.Name,
				DN:                  station.DN,
				InstalledCapacityKW: float64(station.InstalledCapacity),
				Connectivity:        station.PlantStatus,
			})
		}
		if len(resp.Data.List) < stationPageSize {
			break
		}
		if resp.Data.PageCount > 0 && page >= resp.Data.PageCount {
			break
		}
		if resp.Data.Total > 0 && len(all) >= resp.Data.Total {
			break
		}
	}
	if c.logger != nil {
		c.logger.Printf("fusionsolar: fetched %d stations", len(all))
	}
	return all, nil
}

type realtimeResponse struct {
	Data *struct {
		ProductPower     kpiPoint `json:"productPower"`
		UsePower         kpiPoint `json:"usePower"`
		MeterActivePower kpiPoint `json:"meterActivePower"`
	} `json:"data"`
}

// PlantRealtime fetches the latest sampled power values for one plant.
func (c *Client) PlantRealtime(ctx context.Context, dn string) (fleet.RealtimeMetrics, error) {
	if dn == "" {
		return fleet.RealtimeMetrics{}, errors.New("fusionsolar: empty plant dn")
	}
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	query := url.Values{
		"stationDn":  {dn},
		"clientTime": {now},
		"timeZone":   {"1"},
		"_":          {now},
	}
	var resp realtimeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/rest/pvms/web/station/v1/overview/station-real-kpi", query, nil, &resp); err != nil {
		return fleet.RealtimeMetrics{}, err
	}
	if resp.Data == nil {
		return fleet.RealtimeMetrics{}, fmt.Errorf("fusionsolar: no realtime data for %s", dn)
	}
	metrics := fleet.RealtimeMetrics{
		ProductionKW:  float64(resp.Data.ProductPower.Value),
		ConsumptionKW: float64(resp.Data.UsePower.Value),
		GridKW:        float64(resp.Data.MeterActivePower.Value),
	}
	for _, raw := range []string{resp.Data.ProductPower.Time, resp.Data.UsePower.Time, resp.Data.MeterActivePower.Time} {
		if raw == "" {
			continue
		}
		if ts, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local); err == nil {
			metrics.SampleTime = ts
			break
		}
	}
	return metrics, nil
}

type daySeriesResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		XAxis        []string   `json:"xAxis"`
		ProductPower []bucketed `json:"productPower"`
		UsePower     []bucketed `json:"usePower"`
		SelfUsePower []bucketed `json:"selfUsePower"`
	} `json:"data"`
}

// PlantDaySeries fetches the plant's five-minute buckets for the current
// day. Placeholder values ("--") collapse to zero.
func (c *Client) PlantDaySeries(ctx context.Context, dn string) (fleet.TimeSeries, error) {
	if dn == "" {
		return fleet.TimeSeries{}, errors.New("fusionsolar: empty plant dn")
	}
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	query := url.Values{
		"stationDn":   {dn},
		"timeDim":     {"2"},
		"queryTime":   {strconv.FormatInt(dayStartSec(), 10)},
		"timeZone":    {"2"},
		"timeZoneStr": {"Europe/Lisbon"},
		"_":           {now},
	}
	var resp daySeriesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/rest/pvms/web/station/v1/overview/energy-balance", query, nil, &resp); err != nil {
		return fleet.TimeSeries{}, err
	}
	if !resp.Success || resp.Data == nil {
		return fleet.TimeSeries{}, fmt.Errorf("fusionsolar: no day series for %s", dn)
	}
	return fleet.TimeSeries{
		Production:      bucketValues(resp.Data.ProductPower),
		Consumption:     bucketValues(resp.Data.UsePower),
		SelfConsumption: bucketValues(resp.Data.SelfUsePower),
	}, nil
}

type flowResponse struct {
	Data *struct {
		Flow struct {
			Nodes []flowNode `json:"nodes"`
		} `json:"flow"`
	} `json:"data"`
}

type flowNode struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	DevIDs []string `json:"devIds"`
}

// InverterIDs resolves inverter device identifiers from the plant's energy
// flow node graph.
func (c *Client) InverterIDs(ctx context.Context, dn string) ([]string, error) {
	if dn == "" {
		return nil, errors.New("fusionsolar: empty plant dn")
	}
	query := url.Values{"stationDn": {dn}}
	var resp flowResponse
	if err := c.doJSON(ctx, http.MethodGet, "/rest/pvms/web/station/v1/overview/energy-flow", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}
	var ids []string
	for _, node := range resp.Data.Flow.Nodes {
		if !isInverterNode(node) {
			continue
		}
		for _, id := range node.DevIDs {
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func isInverterNode(node flowNode) bool {
	for _, text := range []string{node.Name, node.Type, node.ID} {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "inverter") || strings.Contains(lower, "inv") {
			return true
		}
	}
	return false
}

func dayStartSec() int64 {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start.Unix()
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		if strings.Contains(target, "?") {
			target += "&" + query.Encode()
		} else {
			target += "?" + query.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.roarand != "" {
		req.Header.Set("roarand", c.roarand)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		return &APIError{Op: method + " " + path, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
