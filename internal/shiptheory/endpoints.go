package shiptheory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Endpoint maps an operation name to a method and a path template. Template
// parameters are written as {name}.
type Endpoint struct {
	Name   string
	Method string
	Path   string
}

const (
	OpBookShipment             = "book-shipment"
	OpViewShipment             = "view-shipment"
	OpListShipments            = "list-shipments"
	OpSearchShipments          = "search-shipments"
	OpCreateReturnLabel        = "create-return-label"
	OpOutgoingDeliveryServices = "outgoing-delivery-services"
	OpIncomingDeliveryServices = "incoming-delivery-services"
	OpPackageSizes             = "package-sizes"
	OpAddProduct               = "add-product"
	OpUpdateProduct            = "update-product"
	OpViewProduct              = "view-product"
	OpListProducts             = "list-products"
	OpListTags                 = "list-tags"
	OpAddShipmentTags          = "add-shipment-tags"
	OpCreatePickingList        = "create-picking-list"
	OpViewPickingList          = "view-picking-list"
)

var catalog = mustEndpointCatalog([]Endpoint{
	{OpBookShipment, http.MethodPost, "/shipments"},
	{OpViewShipment, http.MethodGet, "/shipments/{reference}"},
	{OpListShipments, http.MethodGet, "/shipments/list"},
	{OpSearchShipments, http.MethodGet, "/shipments/search"},
	{OpCreateReturnLabel, http.MethodPost, "/returns"},
	{OpOutgoingDeliveryServices, http.MethodGet, "/services"},
	{OpIncomingDeliveryServices, http.MethodGet, "/services/incoming"},
	{OpPackageSizes, http.MethodGet, "/packages/sizes"},
	{OpAddProduct, http.MethodPost, "/products"},
	{OpUpdateProduct, http.MethodPut, "/products/update/{sku}"},
	{OpViewProduct, http.MethodGet, "/products/view/{sku}"},
	{OpListProducts, http.MethodGet, "/products"},
	{OpListTags, http.MethodGet, "/tags"},
	{OpAddShipmentTags, http.MethodPost, "/shipments/{reference}/tags"},
	{OpCreatePickingList, http.MethodPost, "/picking-lists"},
	{OpViewPickingList, http.MethodGet, "/picking-lists/{id}"},
})

type endpointCatalog struct {
	byName map[string]Endpoint
}

func newEndpointCatalog(entries []Endpoint) (*endpointCatalog, error) {
	byName := make(map[string]Endpoint, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("endpoint name cannot be empty")
		}
		if !strings.HasPrefix(e.Path, "/") {
			return nil, fmt.Errorf("endpoint %s: path %q must start with /", e.Name, e.Path)
		}
		if _, exists := byName[e.Name]; exists {
			return nil, fmt.Errorf("duplicate endpoint %s", e.Name)
		}
		byName[e.Name] = e
	}
	return &endpointCatalog{byName: byName}, nil
}

func mustEndpointCatalog(entries []Endpoint) *endpointCatalog {
	c, err := newEndpointCatalog(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Endpoints lists the catalog sorted by name.
func Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(catalog.byName))
	for _, e := range catalog.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupEndpoint finds an endpoint by operation name.
func LookupEndpoint(name string) (Endpoint, bool) {
	e, ok := catalog.byName[name]
	return e, ok
}

// Params returns the template parameter names in order.
func (e Endpoint) Params() []string {
	var params []string
	for _, seg := range strings.Split(e.Path, "/") {
		if name, ok := templateParam(seg); ok {
			params = append(params, name)
		}
	}
	return params
}

// Expand fills the path template with path-escaped params and appends query.
func (e Endpoint) Expand(params map[string]string, query url.Values) (string, error) {
	segments := strings.Split(e.Path, "/")
	used := 0
	for i, seg := range segments {
		name, ok := templateParam(seg)
		if !ok {
			continue
		}
		value := params[name]
		if value == "" {
			return "", fmt.Errorf("%s: missing path parameter %q", e.Name, name)
		}
		segments[i] = url.PathEscape(value)
		used++
	}
	if used != len(params) {
		return "", fmt.Errorf("%s: unexpected path parameters (template %s)", e.Name, e.Path)
	}

	path := strings.Join(segments, "/")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}

func templateParam(seg string) (string, bool) {
	if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

// Call dispatches the catalog operation name.
func (c *Client) Call(ctx context.Context, name string, params map[string]string, query url.Values, body []byte) (*http.Response, error) {
	e, ok := LookupEndpoint(name)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", name)
	}
	path, err := e.Expand(params, query)
	if err != nil {
		return nil, err
	}
	return c.MakeRequest(ctx, e.Method, path, body)
}

func (c *Client) BookShipment(ctx context.Context, data []byte) (*http.Response, error) {
	return c.Call(ctx, OpBookShipment, nil, nil, data)
}

func (c *Client) ViewShipment(ctx context.Context, reference string) (*http.Response, error) {
	return c.Call(ctx, OpViewShipment, map[string]string{"reference": reference}, nil, nil)
}

func (c *Client) ListShipments(ctx context.Context, query url.Values) (*http.Response, error) {
	return c.Call(ctx, OpListShipments, nil, query, nil)
}

func (c *Client) SearchShipments(ctx context.Context, query url.Values) (*http.Response, error) {
	return c.Call(ctx, OpSearchShipments, nil, query, nil)
}

func (c *Client) CreateReturnLabel(ctx context.Context, data []byte) (*http.Response, error) {
	return c.Call(ctx, OpCreateReturnLabel, nil, nil, data)
}

func (c *Client) OutgoingDeliveryServices(ctx context.Context) (*http.Response, error) {
	return c.Call(ctx, OpOutgoingDeliveryServices, nil, nil, nil)
}

func (c *Client) IncomingDeliveryServices(ctx context.Context) (*http.Response, error) {
	return c.Call(ctx, OpIncomingDeliveryServices, nil, nil, nil)
}

func (c *Client) PackageSizes(ctx context.Context, query url.Values) (*http.Response, error) {
	return c.Call(ctx, OpPackageSizes, nil, query, nil)
}

func (c *Client) AddProduct(ctx context.Context, data []byte) (*http.Response, error) {
	return c.Call(ctx, OpAddProduct, nil, nil, data)
}

func (c *Client) UpdateProduct(ctx context.Context, sku string, data []byte) (*http.Response, error) {
	return c.Call(ctx, OpUpdateProduct, map[string]string{"sku": sku}, nil, data)
}

func (c *Client) ViewProduct(ctx context.Context, sku string) (*http.Response, error) {
	return c.Call(ctx, OpViewProduct, map[string]string{"sku": sku}, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, query url.Values) (*http.Response, error) {
	return c.Call(ctx, OpListProducts, nil, query, nil)
}

func (c *Client) ListTags(ctx context.Context) (*http.Response, error) {
	return c.Call(ctx, OpListTags, nil, nil, nil)
}

func (c *Client) AddShipmentTags(ctx context.Context, reference string, data []byte) (*http.Response, error) {
	return c.Call(ctx, OpAddShipmentTags, map[string]string{"reference": reference}, nil, data)
}

func (c *Client) CreatePickingList(ctx context.Context, data []byte) (*http.Response, error) {
	return c.Call(ctx, OpCreatePickingList, nil, nil, data)
}

func (c *Client) ViewPickingList(ctx context.Context, id string) (*http.Response, error) {
	return c.Call(ctx, OpViewPickingList, map[string]string{"id": id}, nil, nil)
}
