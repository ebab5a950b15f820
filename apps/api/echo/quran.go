package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/quran"
)

type quranApi struct {
	svc quran.Service
}

func registerQuranAPI(g *echo.Group, auth echo.MiddlewareFunc, svc quran.Service) {
	api := quranApi{svc: svc}

	qg := g.Group("/quran", auth)
	qg.GET("/surahs", api.surahs)
	qg.GET("/ayat/:surah/:start/:end", api.ayat)
}

func (api *quranApi) surahs(ctx echo.Context) error {
	surahs, err := api.svc.Surahs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing surahs")
	}
	return ctx.JSON(http.StatusOK, surahs)
}

func (api *quranApi) ayat(ctx echo.Context) error {
	surah, err := pathInt(ctx, "surah")
	if err != nil {
		return err
	}
	start, err := pathInt(ctx, "start")
	if err != nil {
		return err
	}
	end, err := pathInt(ctx, "end")
	if err != nil {
		return err
	}

	ayat, err := api.svc.Ayat(ctx.Request().Context(), surah, start, end)
	if err != nil {
		return errors.Wrap(err, "fetching ayat")
	}
	return ctx.JSON(http.StatusOK, ayat)
}
