package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/config"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/pipeline"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
)

// RunsRouter exposes pipeline runs over HTTP. Jobs carry their records inline.
type RunsRouter struct {
	e        *echo.Echo
	runner   *pipeline.Runner
	sink     storage.TableSink
	defaults domain.PipelineOptions
	timeout  time.Duration
}

func NewRunsRouter(e *echo.Echo, runner *pipeline.Runner, sink storage.TableSink, defaults domain.PipelineOptions, timeout time.Duration) *RunsRouter {
	return &RunsRouter{
		e:        e,
		runner:   runner,
		sink:     sink,
		defaults: defaults,
		timeout:  timeout,
	}
}

func (r *RunsRouter) Bind() {
	g := r.e.Group("/api/v1")
	g.POST("/runs", r.run)
	g.POST("/validations", r.validate)
}

type validationResponse struct {
	Valid   bool     `json:"valid"`
	Records int      `json:"records"`
	Errors  []string `json:"errors,omitempty"`
}

func (r *RunsRouter) decode(c echo.Context) (*config.Definition, error) {
	// Numbers stay json.Number so large integers reach the schema unrounded.
	var job config.Job
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&job); err != nil {
		return nil, apperr.NewValidationWrap("invalid job body", err)
	}
	if job.RecordsFile != "" {
		return nil, apperr.NewValidation("recordsFile is not accepted over HTTP, send records inline")
	}
	def, err := job.Resolve("", r.defaults)
	if err != nil {
		return nil, apperr.NewValidationWrap("invalid job", err)
	}
	return def, nil
}

// run executes a job synchronously. The response body is always the RunStatus;
// the HTTP status reflects the failure class.
func (r *RunsRouter) run(c echo.Context) error {
	def, err := r.decode(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	status := r.runner.Run(ctx, def.Options, def.Source, def.Schema, r.sink, def.Table, def.Disposition)
	if status.Succeeded() {
		return c.JSON(http.StatusOK, status)
	}
	code, _ := apperr.StatusOf(status.Err)
	return c.JSON(code, status)
}

func (r *RunsRouter) validate(c echo.Context) error {
	def, err := r.decode(c)
	if err != nil {
		return err
	}
	records, err := def.Source.FetchAll(c.Request().Context())
	if err != nil {
		return err
	}
	_, errs := def.Schema.ValidateAll(records)

	res := validationResponse{Valid: len(errs) == 0, Records: len(records)}
	for _, e := range errs {
		res.Errors = append(res.Errors, e.Error())
	}
	return c.JSON(http.StatusOK, res)
}
