package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/backup"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/student"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type backupApi struct {
	conf     *core.Config
	students student.Service
	loo7s    loo7.Service
}

func registerBackupAPI(g *echo.Group, auth echo.MiddlewareFunc, conf *core.Config, students student.Service, loo7s loo7.Service) {
	api := backupApi{conf: conf, students: students, loo7s: loo7s}
	g.GET("/backup", api.export, auth)
}

// export downloads everything the sheikh owns, as JSON or, with ?format=xlsx, as a spreadsheet.
func (api *backupApi) export(ctx echo.Context) error {
	ownerID, err := getOwnerID(ctx)
	if err != nil {
		return err
	}

	format := ctx.QueryParam("format")
	if format != "" && format != "json" && format != "xlsx" {
		return core.NewValidationError(
			errors.Errorf("unsupported format %q", format),
			core.FieldError{Field: "format", Error: "format must be one of json or xlsx"},
		)
	}

	snap, err := backup.Take(ctx.Request().Context(), api.students, api.loo7s, ownerID)
	if err != nil {
		return errors.Wrap(err, "taking backup")
	}

	if format == "xlsx" {
		f, err := snap.Workbook(api.conf.Timezone)
		if err != nil {
			return errors.Wrap(err, "building workbook")
		}
		defer f.Close()

		attachment(ctx, snap.Filename()+".xlsx")
		ctx.Response().Header().Set(echo.HeaderContentType, mimeXLSX)
		ctx.Response().WriteHeader(http.StatusOK)
		return errors.Wrap(f.Write(ctx.Response()), "writing workbook")
	}

	attachment(ctx, snap.Filename()+".json")
	return ctx.JSON(http.StatusOK, snap)
}

func attachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}
