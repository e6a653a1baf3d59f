package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"washboard/internal/config"
	"washboard/internal/metrics"
	"washboard/internal/models"
	"washboard/internal/schedule"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Client is the HTTP facade over the carwash backend. It owns no business
// logic: pricing, transition rules and subscription activation are server
// concerns. Catalog GETs can be served through an optional Redis
// read-through cache; all calls pass a client-side rate limiter.
type Client struct {
	baseURL    string
	apiKey     string
	apiExtra   string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client from config.
func NewClient(cfg config.APIConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiExtra:   cfg.APIExtra,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
	}
}

// UseRedisCache configures optional Redis caching for catalog endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// ListBookingsByStatusAndDate fetches one stage collection for a business
// date. Order is server-defined and preserved as returned.
func (c *Client) ListBookingsByStatusAndDate(ctx context.Context, status string, date time.Time) ([]models.Booking, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings?status=%s&date=%s",
		c.baseURL, url.QueryEscape(status), url.QueryEscape(date.Format(schedule.DayFormat)))

	var wrap struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.doGet(ctx, "list_bookings", endpoint, &wrap); err != nil {
		return nil, err
	}
	return wrap.Bookings, nil
}

// UpdateBookingStatus sets the booking status server-side. Idempotent: the
// server treats a repeated set to the same status as a no-op.
func (c *Client) UpdateBookingStatus(ctx context.Context, id string, status string) error {
	endpoint := fmt.Sprintf("%s/api/v1/bookings/%s/status", c.baseURL, url.PathEscape(id))
	body := map[string]string{"status": status}
	return c.doJSON(ctx, "update_status", http.MethodPatch, endpoint, body, nil)
}

// CreateBooking creates a booking; the server answers with the full record
// at scheduled status. Запрос снабжается ключом идемпотентности на случай
// повторной отправки формы.
func (c *Client) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings", c.baseURL)
	var booking models.Booking
	if err := c.doJSON(ctx, "create_booking", http.MethodPost, endpoint, req, &booking,
		header{"X-Idempotency-Key", uuid.NewString()}); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListServices returns the service catalog, cached when Redis is configured.
func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	var wrap struct {
		Services []models.Service `json:"services"`
	}
	if err := c.cachedGet(ctx, "list_services", c.baseURL+"/api/v1/services", "catalog:services", &wrap); err != nil {
		return nil, err
	}
	return wrap.Services, nil
}

// ListAddOns returns the add-on catalog, cached when Redis is configured.
func (c *Client) ListAddOns(ctx context.Context) ([]models.AddOn, error) {
	var wrap struct {
		AddOns []models.AddOn `json:"add_ons"`
	}
	if err := c.cachedGet(ctx, "list_addons", c.baseURL+"/api/v1/add-ons", "catalog:addons", &wrap); err != nil {
		return nil, err
	}
	return wrap.AddOns, nil
}

// ListTechnicians returns technicians with their shift flag. Not cached:
// shift state changes during the day.
func (c *Client) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	var wrap struct {
		Technicians []models.Technician `json:"technicians"`
	}
	if err := c.doGet(ctx, "list_technicians", c.baseURL+"/api/v1/technicians", &wrap); err != nil {
		return nil, err
	}
	return wrap.Technicians, nil
}

// GetSubscriptionByCode resolves a scanned membership QR code.
func (c *Client) GetSubscriptionByCode(ctx context.Context, code string) (*models.Subscription, error) {
	endpoint := fmt.Sprintf("%s/api/v1/subscriptions/%s", c.baseURL, url.PathEscape(code))
	var sub models.Subscription
	if err := c.doGet(ctx, "get_subscription", endpoint, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) cachedGet(ctx context.Context, endpointName, endpoint, cacheKey string, out any) error {
	if c.readCache(ctx, cacheKey, out) {
		metrics.IncAPIRequest(endpointName, "cache_hit")
		return nil
	}
	if err := c.doGet(ctx, endpointName, endpoint, out); err != nil {
		return err
	}
	c.writeCache(ctx, cacheKey, out)
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

type header struct {
	key   string
	value string
}

func (c *Client) doGet(ctx context.Context, endpointName, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, endpointName, req, out)
}

func (c *Client) doJSON(ctx context.Context, endpointName, method, endpoint string, body, out any, extra ...header) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for _, h := range extra {
		req.Header.Set(h.key, h.value)
	}
	return c.do(ctx, endpointName, req, out)
}

func (c *Client) do(ctx context.Context, endpointName string, req *http.Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIRequest(endpointName, "error")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.IncAPIRequest(endpointName, "error")
		return decodeError(resp)
	}
	metrics.IncAPIRequest(endpointName, "ok")

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError surfaces the server-provided message when there is one, else a
// generic status string the UI shows as-is.
func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("http %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("http %d", resp.StatusCode)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.apiExtra != "" {
		req.Header.Set("x-api-extra", c.apiExtra)
	}
}
