package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"musicatlas/internal/bootstrap"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
)

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		roleCommand(r),
		importCommand(r),
		mediaCommand(r),
	}
}

func roleCommand(r *Runner) *cli.Command {
	userFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "user-id", Aliases: []string{"u"}, Usage: "identity provider user ID", Required: true}
	}
	return &cli.Command{
		Name:  "role",
		Usage: "Grant or revoke catalog administration",
		Commands: []*cli.Command{
			{
				Name:   "promote",
				Usage:  "Make a user an administrator",
				Flags:  []cli.Flag{userFlag()},
				Action: r.roleAction(models.RoleAdmin),
			},
			{
				Name:   "demote",
				Usage:  "Return a user to the regular role",
				Flags:  []cli.Flag{userFlag()},
				Action: r.roleAction(models.RoleUser),
			},
		},
	}
}

func (r *Runner) roleAction(role models.Role) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		env, err := r.environment(ctx)
		if err != nil {
			return err
		}
		userID := cmd.String("user-id")
		if err := env.Roles.SetRole(ctx, userID, role); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		log.Info().Str("user_id", userID).Str("role", string(role)).Msg("role updated")
		r.printf("%s is now %s", userID, role)
		return nil
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Add the genres, artists and songs of a TOML catalog file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "catalog file", Value: "catalog.toml"},
		},
		Action: r.Import,
	}
}

// Import applies a catalog file. Records already present by name are skipped.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	seed, err := bootstrap.LoadSeed(cmd.String("file"))
	if err != nil {
		return err
	}
	env, err := r.environment(ctx)
	if err != nil {
		return err
	}
	sum, err := bootstrap.Apply(ctx, env.Coordinators, seed)
	if err != nil {
		return err
	}
	r.printf("imported %d genres, %d artists, %d songs", sum.Genres, sum.Artists, sum.Songs)
	return nil
}

func mediaCommand(r *Runner) *cli.Command {
	remoteFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "API base URL", Value: "http://localhost:8080", Sources: cli.EnvVars("MUSICATLAS_SERVER")},
			&cli.StringFlag{Name: "token", Usage: "admin session token", Sources: cli.EnvVars("MUSICATLAS_TOKEN"), Required: true},
		}
	}
	return &cli.Command{
		Name:  "media",
		Usage: "Inspect and manage stored media",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "List records whose media URLs cannot be resolved",
				Action: r.CheckMedia,
			},
			{
				Name:  "upload",
				Usage: "Upload a file through a running server",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true},
					&cli.StringFlag{Name: "folder", Usage: "genres, artists or songs", Required: true},
				}, remoteFlags()...),
				Action: r.UploadMedia,
			},
			{
				Name:  "delete",
				Usage: "Delete a stored object through a running server",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "url", Required: true},
				}, remoteFlags()...),
				Action: r.DeleteMedia,
			},
		},
	}
}

type mediaRef struct {
	kind, id, name, url string
}

// CheckMedia reports every stored URL that no longer maps to an object of the configured host.
func (r *Runner) CheckMedia(ctx context.Context, _ *cli.Command) error {
	env, err := r.environment(ctx)
	if err != nil {
		return err
	}

	var refs []mediaRef
	genreList, err := env.Catalog.Genres.List(ctx)
	if err != nil {
		return err
	}
	for _, g := range genreList {
		refs = append(refs, mediaRef{"genre", g.ID, g.Name, g.ImageURL})
	}
	artistList, err := env.Catalog.Artists.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range artistList {
		refs = append(refs, mediaRef{"artist", a.ID, a.Name, a.ImageURL})
	}
	songList, err := env.Catalog.Songs.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range songList {
		refs = append(refs, mediaRef{"song", s.ID, s.Name, s.ImageURL}, mediaRef{"song", s.ID, s.Name, s.AudioURL})
	}

	broken := 0
	for _, ref := range refs {
		if ref.url == "" {
			continue
		}
		if _, err := env.Media.Resolve(ref.url); err != nil {
			broken++
			r.printf("%s %s (%s): %s", ref.kind, ref.id, ref.name, ref.url)
		}
	}
	if broken > 0 {
		return fmt.Errorf("%d unresolvable media URLs", broken)
	}
	r.printf("all media URLs resolve")
	return nil
}

// UploadMedia sends a local file to the server's media endpoint.
func (r *Runner) UploadMedia(ctx context.Context, cmd *cli.Command) error {
	folder := media.Folder(cmd.String("folder"))
	if !folder.Valid() {
		return fmt.Errorf("%w: %q", media.ErrUnknownFolder, folder)
	}

	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		return errors.New("cannot determine content type from file extension")
	}

	url, err := r.remote(cmd.String("server"), cmd.String("token")).Upload(ctx, media.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Body:        f,
	}, folder)
	if err != nil {
		return err
	}
	r.printf("%s", url)
	return nil
}

// DeleteMedia retires a stored object through the server.
func (r *Runner) DeleteMedia(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("url")
	if err := r.remote(cmd.String("server"), cmd.String("token")).Delete(ctx, url); err != nil {
		return err
	}
	r.printf("deleted %s", url)
	return nil
}
