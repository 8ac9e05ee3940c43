// Package openapi converts OpenAPI 3 and Swagger 2 documents into UTCP manuals
// whose tools are called through HTTP providers.
package openapi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/manual"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/http"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

var methods = []string{"get", "post", "put", "delete", "patch"}

// IsSpec reports whether doc is an OpenAPI or Swagger document rather than a UTCP manual.
func IsSpec(doc map[string]any) bool {
	_, oas3 := doc["openapi"]
	_, oas2 := doc["swagger"]
	return oas3 || oas2
}

// sanitizeName turns a path into an identifier: braces are dropped and
// every run of other characters becomes a single underscore.
func sanitizeName(p string) string {
	p = strings.NewReplacer("{", "", "}", "").Replace(p)
	var b strings.Builder
	underscore := false
	for _, r := range p {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "root"
	}
	return out
}

// Converter converts one OpenAPI document.
type Converter struct {
	spec         map[string]any
	specURL      string
	providerName string
	nameCounts   map[string]int
}

// NewConverter prepares the conversion of spec fetched from specURL. When
// providerName is empty it is derived from info.title.
func NewConverter(spec map[string]any, specURL, providerName string) *Converter {
	if providerName == "" {
		info, _ := spec["info"].(map[string]any)
		title, _ := info["title"].(string)
		providerName = sanitizeName(title)
		if title == "" {
			providerName = "openapi_provider"
		}
	}
	return &Converter{
		spec:         spec,
		specURL:      specURL,
		providerName: providerName,
		nameCounts:   map[string]int{},
	}
}

// ProviderName is the name given to the providers of the converted tools.
func (c *Converter) ProviderName() string { return c.providerName }

// Convert builds one tool per operation. Paths and methods are visited in
// sorted order so tool names are stable across runs.
func (c *Converter) Convert() *manual.UtcpManual {
	baseURL := c.baseURL()
	paths, _ := c.spec["paths"].(map[string]any)
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	out := []tools.Tool{}
	for _, p := range keys {
		item, ok := c.resolve(paths[p]).(map[string]any)
		if !ok {
			continue
		}
		for _, m := range methods {
			op, ok := item[m].(map[string]any)
			if !ok {
				continue
			}
			out = append(out, c.createTool(p, m, op, item, baseURL))
		}
	}
	version, _ := c.spec["openapi"].(string)
	if version == "" {
		version, _ = c.spec["swagger"].(string)
	}
	return &manual.UtcpManual{Version: version, Tools: out}
}

func (c *Converter) baseURL() string {
	var specURL *url.URL
	if c.specURL != "" {
		specURL, _ = url.Parse(c.specURL)
	}
	if servers, ok := c.spec["servers"].([]any); ok && len(servers) > 0 {
		if srv, ok := servers[0].(map[string]any); ok {
			if u, _ := srv["url"].(string); u != "" {
				if ref, err := url.Parse(u); err == nil && !ref.IsAbs() && specURL != nil {
					return specURL.ResolveReference(ref).String()
				}
				return u
			}
		}
	}
	if host, _ := c.spec["host"].(string); host != "" {
		scheme := "https"
		if schemes, ok := c.spec["schemes"].([]any); ok && len(schemes) > 0 {
			if s, _ := schemes[0].(string); s != "" {
				scheme = s
			}
		} else if specURL != nil && specURL.Scheme != "" {
			scheme = specURL.Scheme
		}
		basePath, _ := c.spec["basePath"].(string)
		return scheme + "://" + host + strings.TrimRight(basePath, "/")
	}
	if specURL != nil && specURL.Host != "" {
		return specURL.Scheme + "://" + specURL.Host
	}
	return ""
}

func (c *Converter) resolveRef(ref string) (map[string]any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, fmt.Errorf("unsupported external ref %q", ref)
	}
	node := c.spec
	for _, part := range strings.Split(ref[2:], "/") {
		part = strings.NewReplacer("~1", "/", "~0", "~").Replace(part)
		next, ok := node[part].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ref %q not found", ref)
		}
		node = next
	}
	return node, nil
}

// resolve inlines every local $ref below v. A ref that points back at one of
// its ancestors is left as is.
func (c *Converter) resolve(v any) any {
	return c.resolveSeen(v, map[string]bool{})
}

func (c *Converter) resolveSeen(v any, seen map[string]bool) any {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["$ref"].(string); ok {
			if seen[ref] {
				return val
			}
			target, err := c.resolveRef(ref)
			if err != nil {
				return val
			}
			seen[ref] = true
			defer delete(seen, ref)
			return c.resolveSeen(target, seen)
		}
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = c.resolveSeen(e, seen)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = c.resolveSeen(e, seen)
		}
		return out
	default:
		return v
	}
}

func (c *Converter) toolName(p, method string, op map[string]any) string {
	if id, _ := op["operationId"].(string); id != "" {
		return id
	}
	name := method + "_" + sanitizeName(p)
	c.nameCounts[name]++
	if n := c.nameCounts[name]; n > 1 {
		name = fmt.Sprintf("%s_%d", name, n)
	}
	return name
}

func (c *Converter) createTool(p, method string, op, pathItem map[string]any, baseURL string) tools.Tool {
	desc, _ := op["summary"].(string)
	if desc == "" {
		desc, _ = op["description"].(string)
	}
	tags := []string{}
	if raw, ok := op["tags"].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}

	inputs, headers, bodyField, contentType := c.extractInputs(op, pathItem)
	prov := &providers.HttpProvider{
		BaseProvider: base.BaseProvider{Name: c.providerName, ProviderType: base.ProviderHTTP},
		HTTPMethod:   strings.ToUpper(method),
		URL:          strings.TrimRight(baseURL, "/") + p,
		ContentType:  contentType,
		Auth:         c.extractAuth(op),
		BodyField:    bodyField,
		HeaderFields: headers,
	}
	return tools.Tool{
		Name:        c.toolName(p, method, op),
		Description: desc,
		Inputs:      inputs,
		Outputs:     c.extractOutputs(op),
		Tags:        tags,
		Provider:    prov,
	}
}

// extractInputs merges path-level and operation parameters into one object
// schema. Header parameters are reported as header fields and the request
// body, when present, becomes a single body field.
func (c *Converter) extractInputs(op, pathItem map[string]any) (tools.ToolInputOutputSchema, []string, *string, string) {
	props := map[string]any{}
	var required, headers []string
	var bodyField *string
	contentType := "application/json"

	var params []any
	if shared, ok := pathItem["parameters"].([]any); ok {
		params = append(params, shared...)
	}
	if own, ok := op["parameters"].([]any); ok {
		params = append(params, own...)
	}
	for _, raw := range params {
		param, ok := c.resolve(raw).(map[string]any)
		if !ok {
			continue
		}
		name, _ := param["name"].(string)
		in, _ := param["in"].(string)
		if name == "" {
			continue
		}
		if in == "body" {
			field := name
			bodyField = &field
		}
		props[name] = paramSchema(param)
		if in == "header" {
			headers = append(headers, name)
		}
		if req, _ := param["required"].(bool); req || in == "path" {
			required = appendOnce(required, name)
		}
	}

	if rb, ok := c.resolve(op["requestBody"]).(map[string]any); ok {
		if content, ok := rb["content"].(map[string]any); ok {
			mediaType, schema := pickContent(content)
			if mediaType != "" {
				field := "body"
				bodyField = &field
				contentType = mediaType
				prop := map[string]any{}
				for k, v := range schema {
					prop[k] = v
				}
				if d, _ := rb["description"].(string); d != "" {
					prop["description"] = d
				}
				props[field] = prop
				if req, _ := rb["required"].(bool); req {
					required = appendOnce(required, field)
				}
			}
		}
	}
	if consumes, ok := op["consumes"].([]any); ok && len(consumes) > 0 {
		if s, _ := consumes[0].(string); s != "" {
			contentType = s
		}
	}

	return tools.ToolInputOutputSchema{Type: "object", Properties: props, Required: required}, headers, bodyField, contentType
}

// paramSchema reads the schema of a parameter: OpenAPI 3 nests it under
// "schema", Swagger 2 puts type information on the parameter itself.
func paramSchema(param map[string]any) map[string]any {
	out := map[string]any{}
	if s, ok := param["schema"].(map[string]any); ok {
		for k, v := range s {
			out[k] = v
		}
	} else {
		for _, k := range []string{"type", "items", "enum", "format", "default"} {
			if v, ok := param[k]; ok {
				out[k] = v
			}
		}
	}
	if d, _ := param["description"].(string); d != "" {
		out["description"] = d
	}
	return out
}

// pickContent prefers a JSON media type and otherwise takes the first one in name order.
func pickContent(content map[string]any) (string, map[string]any) {
	types := make([]string, 0, len(content))
	for mt := range content {
		types = append(types, mt)
	}
	sort.Strings(types)
	for _, mt := range types {
		if strings.Contains(mt, "json") {
			types = []string{mt}
			break
		}
	}
	if len(types) == 0 {
		return "", nil
	}
	mt := types[0]
	obj, _ := content[mt].(map[string]any)
	schema, _ := obj["schema"].(map[string]any)
	if schema == nil {
		schema = map[string]any{}
	}
	return mt, schema
}

func (c *Converter) extractOutputs(op map[string]any) tools.ToolInputOutputSchema {
	responses, _ := op["responses"].(map[string]any)
	for _, code := range []string{"200", "201", "default"} {
		resp, ok := c.resolve(responses[code]).(map[string]any)
		if !ok {
			continue
		}
		var schema map[string]any
		if content, ok := resp["content"].(map[string]any); ok {
			_, schema = pickContent(content)
		} else {
			schema, _ = resp["schema"].(map[string]any)
		}
		if schema == nil {
			continue
		}
		out := tools.ToolInputOutputSchema{Type: "object"}
		out.Type, _ = schema["type"].(string)
		out.Properties, _ = schema["properties"].(map[string]any)
		out.Items, _ = schema["items"].(map[string]any)
		out.Title, _ = schema["title"].(string)
		out.Description, _ = schema["description"].(string)
		if out.Description == "" {
			out.Description, _ = resp["description"].(string)
		}
		if req, ok := schema["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					out.Required = append(out.Required, s)
				}
			}
		}
		return out
	}
	return tools.ToolInputOutputSchema{Type: "object"}
}

// extractAuth maps the first usable security requirement of op (or of the
// document) onto an auth block whose secrets are ${PROVIDER_...} variables.
func (c *Converter) extractAuth(op map[string]any) auth.Auth {
	reqs, ok := op["security"].([]any)
	if !ok {
		reqs, _ = c.spec["security"].([]any)
	}
	schemes := c.securitySchemes()
	for _, raw := range reqs {
		req, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(req))
		for n := range req {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			scheme, ok := c.resolve(schemes[n]).(map[string]any)
			if !ok {
				continue
			}
			if a := c.authFromScheme(scheme); a != nil {
				return a
			}
		}
	}
	return nil
}

func (c *Converter) securitySchemes() map[string]any {
	if comp, ok := c.spec["components"].(map[string]any); ok {
		if schemes, ok := comp["securitySchemes"].(map[string]any); ok {
			return schemes
		}
	}
	defs, _ := c.spec["securityDefinitions"].(map[string]any)
	return defs
}

func (c *Converter) variable(suffix string) string {
	return "${" + strings.ToUpper(c.providerName) + "_" + suffix + "}"
}

func (c *Converter) authFromScheme(scheme map[string]any) auth.Auth {
	typ, _ := scheme["type"].(string)
	switch strings.ToLower(typ) {
	case "apikey":
		name, _ := scheme["name"].(string)
		in, _ := scheme["in"].(string)
		if in == "" {
			in = "header"
		}
		return &auth.ApiKeyAuth{AuthType: auth.APIKeyType, APIKey: c.variable("API_KEY"), VarName: name, Location: in}
	case "basic":
		return auth.NewBasicAuth(c.variable("USERNAME"), c.variable("PASSWORD"))
	case "http":
		s, _ := scheme["scheme"].(string)
		switch strings.ToLower(s) {
		case "basic":
			return auth.NewBasicAuth(c.variable("USERNAME"), c.variable("PASSWORD"))
		case "bearer":
			return &auth.ApiKeyAuth{AuthType: auth.APIKeyType, APIKey: "Bearer " + c.variable("API_KEY"), VarName: "Authorization", Location: "header"}
		}
	case "oauth2":
		if flows, ok := scheme["flows"].(map[string]any); ok {
			names := make([]string, 0, len(flows))
			for n := range flows {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				flow, _ := flows[n].(map[string]any)
				if a := c.oauth2(flow); a != nil {
					return a
				}
			}
		}
		return c.oauth2(scheme)
	}
	return nil
}

func (c *Converter) oauth2(flow map[string]any) auth.Auth {
	tokenURL, _ := flow["tokenUrl"].(string)
	if tokenURL == "" {
		return nil
	}
	var scope *string
	if scopes, ok := flow["scopes"].(map[string]any); ok && len(scopes) > 0 {
		names := make([]string, 0, len(scopes))
		for s := range scopes {
			names = append(names, s)
		}
		sort.Strings(names)
		joined := strings.Join(names, " ")
		scope = &joined
	}
	return auth.NewOAuth2Auth(tokenURL, c.variable("CLIENT_ID"), c.variable("CLIENT_SECRET"), scope)
}

func appendOnce(list []string, s string) []string {
	for _, e := range list {
		if e == s {
			return list
		}
	}
	return append(list, s)
}
