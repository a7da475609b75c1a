// Package seed loads a small demo data set through the mutation gateway so
// that every record gets its activity entry.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/rs/zerolog"

	authz "github.com/yigit/photoshare/internal/app/auth"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/pkg/apperrors"
)

// DemoPassword is shared by every demo account
const DemoPassword = "photoshare"

type demoUser struct {
	login       string
	first, last string
	location    string
	occupation  string
	description string
}

type demoComment struct {
	author string
	text   string
}

type demoPhoto struct {
	owner      string
	file       string
	shade      color.RGBA
	sharedWith []string
	likedBy    []string
	comments   []demoComment
}

var demoUsers = []demoUser{
	{login: "ada", first: "Ada", last: "Byron", location: "London", occupation: "Analyst", description: "Notes on engines."},
	{login: "grace", first: "Grace", last: "Murray", location: "Arlington", occupation: "Rear admiral", description: "Found a moth once."},
	{login: "linus", first: "Linus", last: "Pauling", location: "Portland", occupation: "Chemist"},
	{login: "hedy", first: "Hedy", last: "Kiesler", location: "Vienna", occupation: "Inventor", description: "Frequency hopping."},
}

var demoPhotos = []demoPhoto{
	{
		owner: "ada", file: "engine.png", shade: color.RGBA{R: 180, G: 120, B: 60, A: 255},
		likedBy:  []string{"grace", "hedy"},
		comments: []demoComment{{author: "grace", text: "Does it compute?"}, {author: "ada", text: "Eventually."}},
	},
	{
		owner: "ada", file: "garden.png", shade: color.RGBA{R: 60, G: 160, B: 80, A: 255},
		sharedWith: []string{"grace"},
		comments:   []demoComment{{author: "grace", text: "Lovely roses."}},
	},
	{
		owner: "grace", file: "harbor.png", shade: color.RGBA{R: 40, G: 90, B: 190, A: 255},
		likedBy: []string{"ada", "linus", "hedy"},
	},
	{
		owner: "linus", file: "crystals.png", shade: color.RGBA{R: 150, G: 60, B: 170, A: 255},
		sharedWith: []string{"hedy"},
		likedBy:    []string{"hedy"},
		comments:   []demoComment{{author: "hedy", text: "Sharp!"}},
	},
	{
		owner: "hedy", file: "studio.png", shade: color.RGBA{R: 220, G: 200, B: 70, A: 255},
		comments: []demoComment{{author: "linus", text: "Great light."}, {author: "ada", text: "Agreed."}},
	},
}

// LoadDemoData registers the demo users and their photos, likes and
// comments. It does nothing when the first demo account already exists.
func LoadDemoData(ctx context.Context, gateway *services.MutationGateway, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo data...")

	ids := make(map[string]string, len(demoUsers))
	for i, u := range demoUsers {
		user, err := gateway.Register(ctx, services.RegisterInput{
			LoginName:   u.login,
			Password:    DemoPassword,
			FirstName:   u.first,
			LastName:    u.last,
			Location:    u.location,
			Description: u.description,
			Occupation:  u.occupation,
		})
		if err != nil {
			if i == 0 && apperrors.Is(err, apperrors.ErrConflict) {
				lgr.Info().Msg("Demo data already present, skipping")
				return nil
			}
			return fmt.Errorf("register demo user %s: %w", u.login, err)
		}
		ids[u.login] = user.ID
	}

	as := func(login string) context.Context {
		return authz.WithViewer(ctx, authz.Viewer{UserID: ids[login]})
	}

	var finalErr error // collect failures without stopping
	for _, p := range demoPhotos {
		content, err := placeholder(p.shade)
		if err != nil {
			return fmt.Errorf("render %s: %w", p.file, err)
		}

		shared := make([]string, 0, len(p.sharedWith))
		for _, login := range p.sharedWith {
			shared = append(shared, ids[login])
		}

		photo, err := gateway.UploadPhoto(as(p.owner), bytes.NewReader(content), p.file, shared)
		if err != nil {
			lgr.Error().Err(err).Str("file", p.file).Msg("Error creating demo photo")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		for _, login := range p.likedBy {
			if _, err := gateway.ToggleLike(as(login), photo.ID); err != nil {
				lgr.Error().Err(err).Str("file", p.file).Str("login", login).Msg("Error liking demo photo")
				finalErr = errors.Join(finalErr, err)
			}
		}
		for _, c := range p.comments {
			if _, err := gateway.AddComment(as(c.author), photo.ID, c.text); err != nil {
				lgr.Error().Err(err).Str("file", p.file).Str("login", c.author).Msg("Error commenting on demo photo")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	if finalErr == nil {
		lgr.Info().Int("users", len(demoUsers)).Int("photos", len(demoPhotos)).Msg("Demo data created")
	}
	return finalErr
}

// placeholder renders a small vertical gradient of shade
func placeholder(shade color.RGBA) ([]byte, error) {
	const w, h = 96, 64
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		f := 0.5 + 0.5*float64(y)/float64(h)
		c := color.RGBA{
			R: uint8(float64(shade.R) * f),
			G: uint8(float64(shade.G) * f),
			B: uint8(float64(shade.B) * f),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
