package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/eventboard/internal/application/event"
	"github.com/lllypuk/eventboard/internal/application/post"
	"github.com/lllypuk/eventboard/internal/application/user"
	httphandler "github.com/lllypuk/eventboard/internal/handler/http"
	"github.com/lllypuk/eventboard/internal/infrastructure/auth"
	"github.com/lllypuk/eventboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/eventboard/internal/infrastructure/identity"
	"github.com/lllypuk/eventboard/internal/infrastructure/media"
	mongodbinfra "github.com/lllypuk/eventboard/internal/infrastructure/mongodb"
	"github.com/lllypuk/eventboard/internal/infrastructure/serviceclient"
	"github.com/lllypuk/eventboard/internal/middleware"
	"github.com/lllypuk/eventboard/web"
)

// WireFunc registers one service's routes on the router.
type WireFunc func(ctx context.Context, c *Container, r *httpserver.Router) error

// Events wires the events service.
func Events(ctx context.Context, c *Container, r *httpserver.Router) error {
	coll, err := c.Collection(ctx, mongodbinfra.CollectionEvents)
	if err != nil {
		return err
	}

	svc := event.NewService(coll, event.WithLogger(c.Logger), event.WithRecorder(c.Metrics))
	r.RegisterAll(httphandler.NewEventHandler(svc))
	return nil
}

// Posts wires the posts service. Attachments go to Cloudinary when it is
// configured.
func Posts(ctx context.Context, c *Container, r *httpserver.Router) error {
	coll, err := c.Collection(ctx, mongodbinfra.CollectionPosts)
	if err != nil {
		return err
	}

	var uploader httphandler.Uploader
	if c.Config.Media.Enabled() {
		cld, cldErr := media.NewCloudinaryUploader(c.Config.Media, c.Logger)
		if cldErr != nil {
			return fmt.Errorf("media: %w", cldErr)
		}
		uploader = cld
	} else {
		c.Logger.InfoContext(ctx, "media storage is not configured; file names are stored as references")
	}

	svc := post.NewService(coll, post.WithLogger(c.Logger), post.WithRecorder(c.Metrics))
	r.RegisterAll(httphandler.NewPostHandler(svc, uploader, c.Logger))
	return nil
}

// Users wires the users service. Sign-in is available when a JWKS URL is
// configured.
func Users(ctx context.Context, c *Container, r *httpserver.Router) error {
	coll, err := c.Collection(ctx, mongodbinfra.CollectionUsers)
	if err != nil {
		return err
	}

	var validator httphandler.TokenValidator
	if c.Config.Auth.Enabled() {
		v, vErr := identity.NewJWTValidator(c.Config.Auth, c.Logger)
		if vErr != nil {
			return fmt.Errorf("identity: %w", vErr)
		}
		c.OnClose(func(context.Context) error { return v.Close() })
		validator = v
	} else {
		c.Logger.WarnContext(ctx, "identity provider is not configured; sign-in is disabled")
	}

	svc := user.NewService(coll, user.WithLogger(c.Logger), user.WithRecorder(c.Metrics))
	r.RegisterAll(httphandler.NewUserHandler(svc, validator, c.Logger))
	return nil
}

// Pageserve wires the HTML front end over the three record services.
func Pageserve(ctx context.Context, c *Container, r *httpserver.Router) error {
	if err := c.Config.RequireServices(); err != nil {
		return err
	}

	renderer, err := httphandler.NewTemplateRenderer(httphandler.TemplateRendererConfig{
		FS:      web.TemplatesFS,
		Logger:  c.Logger,
		DevMode: c.Config.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	r.Echo().Renderer = renderer

	redisClient, err := c.RedisClient(ctx)
	if err != nil {
		return err
	}
	sessions := auth.NewSessionStore(auth.SessionStoreConfig{
		Client:    redisClient,
		KeyPrefix: c.Config.Session.KeyPrefix,
		TTL:       c.Config.Session.TTL,
	})

	handler := httphandler.NewPageHandler(httphandler.PageHandlerConfig{
		Events:   serviceclient.EventsClient{Client: c.serviceClient(c.Config.Services.EventsURL)},
		Posts:    serviceclient.PostsClient{Client: c.serviceClient(c.Config.Services.PostsURL)},
		Users:    serviceclient.UsersClient{Client: c.serviceClient(c.Config.Services.UsersURL)},
		Sessions: sessions,
		Cookie: httphandler.SessionCookie{
			Name:   c.Config.Session.CookieName,
			Secure: c.Config.Session.Secure,
		},
		Logger: c.Logger,
	})

	g := r.API()
	g.Use(middleware.Session(middleware.SessionConfig{
		Logger:     c.Logger,
		Store:      sessions,
		CookieName: c.Config.Session.CookieName,
	}))
	handler.RegisterRoutes(g)

	c.Logger.InfoContext(ctx, "pageserve backends",
		slog.String("events", c.Config.Services.EventsURL),
		slog.String("posts", c.Config.Services.PostsURL),
		slog.String("users", c.Config.Services.UsersURL))
	return nil
}

func (c *Container) serviceClient(baseURL string) *serviceclient.Client {
	return serviceclient.New(serviceclient.Config{
		BaseURL: baseURL,
		Timeout: c.Config.Services.Timeout,
		Logger:  c.Logger,
	})
}
