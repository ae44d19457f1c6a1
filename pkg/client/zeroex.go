package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"zerox-swap/pkg/types"
)

const apiVersion = "v2"

// ZeroExClient wraps the swap aggregation HTTP API. All endpoints are GET
// with query parameters and authenticate with an API key header.
type ZeroExClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewZeroExClient creates a new aggregator API client.
func NewZeroExClient(baseURL, apiKey string) *ZeroExClient {
	return &ZeroExClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// GetSources retrieves the liquidity sources available on a chain.
func (c *ZeroExClient) GetSources(ctx context.Context, chainID int64) (map[string]string, error) {
	query := url.Values{}
	query.Set("chainId", strconv.FormatInt(chainID, 10))

	var resp types.SourcesResponse
	if err := c.get(ctx, "/sources", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	return resp.Sources, nil
}

// GetPrice fetches an indicative price for the swap. The response carries no
// transaction data but reports whether an allowance issue blocks execution.
func (c *ZeroExClient) GetPrice(ctx context.Context, params *types.SwapParams) (*types.PriceResponse, error) {
	var resp types.PriceResponse
	if err := c.get(ctx, "/swap/allowance-holder/price", swapQuery(params), &resp); err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	return &resp, nil
}

// GetQuote fetches a firm, executable quote using the same parameters as the
// preceding price request.
func (c *ZeroExClient) GetQuote(ctx context.Context, params *types.SwapParams) (*types.QuoteResponse, error) {
	var resp types.QuoteResponse
	if err := c.get(ctx, "/swap/allowance-holder/quote", swapQuery(params), &resp); err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	return &resp, nil
}

// swapQuery builds the query parameter set shared verbatim by the price and
// quote endpoints.
func swapQuery(params *types.SwapParams) url.Values {
	query := url.Values{}
	query.Set("chainId", strconv.FormatInt(params.ChainID, 10))
	query.Set("sellToken", params.SellToken.Hex())
	query.Set("buyToken", params.BuyToken.Hex())
	query.Set("sellAmount", params.SellAmount.String())
	query.Set("taker", params.Taker.Hex())
	query.Set("affiliateFee", strconv.Itoa(params.AffiliateFeeBps))
	query.Set("surplusCollection", strconv.FormatBool(params.SurplusCollection))
	return query
}

func (c *ZeroExClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("0x-api-key", c.apiKey)
	req.Header.Set("0x-version", apiVersion)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// The body is diagnostics only, never a fallback value
		if message := extractErrorMessage(body); message != "" {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, message)
		}
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// extractErrorMessage pulls a human-readable message out of an error body if
// one is present.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var errorResp map[string]interface{}
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return string(body)
	}

	if message, ok := errorResp["message"].(string); ok {
		return message
	}
	return string(body)
}
