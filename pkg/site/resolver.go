package site

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Recorder receives resolution outcomes. telemetry.Metrics implements it.
type Recorder interface {
	RecordLoad(result string, duration time.Duration)
	RecordConfigError(kind string)
}

// Resolver validates raw configuration literals against a document set and
// produces resolved SiteConfig values.
type Resolver struct {
	docs      DocumentSet
	validator *validator.Validate
	logger    zerolog.Logger
	recorder  Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger.With().Str("component", "site-resolver").Logger()
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) {
		r.recorder = rec
	}
}

// NewResolver creates a resolver that checks sidebar links against docs.
func NewResolver(docs DocumentSet, opts ...Option) *Resolver {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	r := &Resolver{
		docs:      docs,
		validator: v,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load parses, validates and resolves raw. On failure the returned error is
// a *ConfigError and no configuration is returned.
func (r *Resolver) Load(ctx context.Context, raw map[string]interface{}) (*SiteConfig, error) {
	_, span := otel.Tracer("docnav/site").Start(ctx, "site.Load")
	defer span.End()

	if r.docs == nil {
		return nil, fmt.Errorf("resolver has no document set")
	}

	start := time.Now()
	cfg, err := r.resolve(raw)
	duration := time.Since(start)

	if err != nil {
		kind := "unknown"
		if ce, ok := AsConfigError(err); ok {
			kind = string(ce.Kind)
			span.SetAttributes(
				attribute.String("config.error.kind", kind),
				attribute.String("config.error.path", ce.Path),
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if r.recorder != nil {
			r.recorder.RecordLoad("error", duration)
			r.recorder.RecordConfigError(kind)
		}
		r.logger.Debug().Err(err).Dur("duration", duration).Msg("Site configuration rejected")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("site.nav", len(cfg.Theme.Nav)),
		attribute.Int("site.sidebar_groups", len(cfg.Theme.Sidebar)),
	)
	if r.recorder != nil {
		r.recorder.RecordLoad("ok", duration)
	}
	r.logger.Debug().
		Str("title", cfg.Title).
		Int("nav", len(cfg.Theme.Nav)).
		Int("sidebar_groups", len(cfg.Theme.Sidebar)).
		Int("social_links", len(cfg.Theme.SocialLinks)).
		Dur("duration", duration).
		Msg("Site configuration resolved")

	return cfg, nil
}

// resolve runs the four validation stages in order.
func (r *Resolver) resolve(raw map[string]interface{}) (*SiteConfig, error) {
	cfg, err := decodeSiteConfig(raw)
	if err != nil {
		return nil, err
	}
	if err := r.validateStruct(cfg); err != nil {
		return nil, err
	}
	if err := resolveLinks(cfg); err != nil {
		return nil, err
	}
	if err := r.checkDocuments(cfg); err != nil {
		return nil, err
	}
	if err := checkNavLabels(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateStruct enforces struct tag rules and reports the first failure
// by field path.
func (r *Resolver) validateStruct(cfg *SiteConfig) error {
	err := r.validator.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewMalformedShape("", "%v", err)
	}

	fe := verrs[0]
	return NewMalformedShape(fieldPath(fe.Namespace()), "%s", describeTag(fe))
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "contains":
		return fmt.Sprintf("must contain %q", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "alphanum":
		return "must be alphanumeric"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// resolveLinks classifies and normalizes every nav, sidebar and social link.
func resolveLinks(cfg *SiteConfig) error {
	for i := range cfg.Theme.Nav {
		item := &cfg.Theme.Nav[i]
		p := indexPath("theme.nav", i) + ".link"
		switch ClassifyLink(item.Link) {
		case LinkExternal:
			if !SafeExternalLink(item.Link) {
				return NewMalformedShape(p, "link %q uses an unsupported scheme", item.Link)
			}
			item.External = true
			item.Href = item.Link
		case LinkInternal:
			item.Link = NormalizeInternalLink(item.Link)
			item.Href = joinBase(cfg.Base, item.Link)
		default:
			return NewMalformedShape(p, "link %q must be an absolute URL or start with \"/\"", item.Link)
		}
	}

	for g := range cfg.Theme.Sidebar {
		group := &cfg.Theme.Sidebar[g]
		for i := range group.Items {
			item := &group.Items[i]
			p := indexPath(indexPath("theme.sidebar", g)+".items", i) + ".link"
			switch ClassifyLink(item.Link) {
			case LinkInternal:
				item.authored = item.Link
				item.Link = NormalizeInternalLink(item.Link)
				item.Href = joinBase(cfg.Base, item.Link)
			case LinkExternal:
				return NewMalformedShape(p, "sidebar link %q must be an internal path", item.Link)
			default:
				return NewMalformedShape(p, "link %q must start with \"/\"", item.Link)
			}
		}
	}

	for i, social := range cfg.Theme.SocialLinks {
		p := indexPath("theme.socialLinks", i) + ".link"
		if ClassifyLink(social.Link) != LinkExternal {
			return NewMalformedShape(p, "social link %q must be an absolute URL", social.Link)
		}
		if !SafeExternalLink(social.Link) {
			return NewMalformedShape(p, "social link %q uses an unsupported scheme", social.Link)
		}
	}

	return nil
}

// checkDocuments verifies every sidebar link targets a known document. The
// error names the link as the author wrote it.
func (r *Resolver) checkDocuments(cfg *SiteConfig) error {
	for g, group := range cfg.Theme.Sidebar {
		for i, item := range group.Items {
			if !r.docs.Has(CanonicalDocPath(item.Link)) {
				subject := item.authored
				if subject == "" {
					subject = item.Link
				}
				return NewBrokenLink(indexPath(indexPath("theme.sidebar", g)+".items", i)+".link", subject)
			}
		}
	}
	return nil
}

// checkNavLabels rejects duplicate top-level nav labels.
func checkNavLabels(cfg *SiteConfig) error {
	seen := make(map[string]struct{}, len(cfg.Theme.Nav))
	for i, item := range cfg.Theme.Nav {
		if _, dup := seen[item.Text]; dup {
			return NewDuplicateNavLabel(indexPath("theme.nav", i)+".text", item.Text)
		}
		seen[item.Text] = struct{}{}
	}
	return nil
}

// EditLinkFor substitutes documentPath into the edit link pattern. A leading
// "/" is dropped so patterns read naturally as ".../edit/main/docs/:path".
// It returns "" when no pattern is configured.
func (c *SiteConfig) EditLinkFor(documentPath string) string {
	if c.Theme.EditLinkPattern == "" {
		return ""
	}
	return strings.ReplaceAll(c.Theme.EditLinkPattern, EditLinkPlaceholder, strings.TrimPrefix(documentPath, "/"))
}
