package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/report-generator/internal/async"
	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/entity"
	"github.com/joseph-ayodele/report-generator/internal/export"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
	"github.com/joseph-ayodele/report-generator/internal/storage"
)

type customerRequest struct {
	CustomerName string `json:"customer_name"`
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

type reportResponse struct {
	CustomerName string            `json:"customer_name"`
	Report       entity.ReportData `json:"report"`
}

type linkResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) snapshot(c *gin.Context) {
	ok(c, s.ctrl.Snapshot())
}

func (s *Server) setCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	// blank clears the field; analyze rejects it later
	if strings.TrimSpace(req.CustomerName) != "" {
		if err := common.ValidateCustomerName(req.CustomerName); err != nil {
			s.abortWithError(c, "customer", err)
			return
		}
	}
	s.ctrl.SetCustomerName(req.CustomerName)
	ok(c, s.ctrl.Snapshot())
}

func (s *Server) uploadFiles(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		fail(c, http.StatusBadRequest, "expected a multipart form with files")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		fail(c, http.StatusBadRequest, "no files in field \"files\"")
		return
	}

	files := make([]normalize.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.abortWithError(c, "upload", err)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.abortWithError(c, "upload", err)
			return
		}
		files = append(files, normalize.File{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Data:      data,
		})
	}
	if err := s.ctrl.AddFiles(files...); err != nil {
		s.abortWithError(c, "upload", err)
		return
	}
	ok(c, s.ctrl.Snapshot())
}

func (s *Server) removeFile(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		fail(c, http.StatusBadRequest, "index must be an integer")
		return
	}
	if err := s.ctrl.RemoveFile(idx); err != nil {
		s.abortWithError(c, "remove_file", err)
		return
	}
	ok(c, s.ctrl.Snapshot())
}

func (s *Server) saveCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.APIKey) == "" {
		fail(c, http.StatusBadRequest, "api_key is required")
		return
	}
	if err := s.ctrl.SaveCredential(c.Request.Context(), req.APIKey); err != nil {
		s.abortWithError(c, "credential", err)
		return
	}
	ok(c, s.ctrl.Snapshot())
}

func (s *Server) clearCredential(c *gin.Context) {
	if err := s.ctrl.ClearCredential(c.Request.Context()); err != nil {
		s.abortWithError(c, "credential", err)
		return
	}
	ok(c, s.ctrl.Snapshot())
}

// analyze accepts the run and extracts in the background; clients poll the snapshot.
func (s *Server) analyze(c *gin.Context) {
	ctx := c.Request.Context()
	job, err := s.ctrl.Begin(ctx)
	if err != nil {
		s.abortWithError(c, "analyze", err)
		return
	}
	rid := common.RequestIDFromContext(ctx)
	err = s.queue.Submit(ctx, async.Job{Name: "analyze", RequestID: rid, Run: job.Run})
	if err != nil {
		job.Abandon(ctx, err)
		s.abortWithError(c, "analyze", err)
		return
	}
	accepted(c, s.ctrl.Snapshot())
}

func (s *Server) report(c *gin.Context) {
	data, customer, err := s.ctrl.Report()
	if err != nil {
		s.abortWithError(c, "report", err)
		return
	}
	ok(c, reportResponse{CustomerName: customer, Report: data})
}

// download streams the deck, or with ?link=1 stores it and returns a URL.
func (s *Server) download(c *gin.Context) {
	ctx := c.Request.Context()
	art, err := s.ctrl.Download(ctx)
	if err != nil {
		s.abortWithError(c, "download", err)
		return
	}
	if wantLink, _ := strconv.ParseBool(c.Query("link")); !wantLink {
		attachment(c, art.Name, art.ContentType, art.Data)
		return
	}
	if s.store == nil {
		fail(c, http.StatusNotImplemented, "download links are not configured")
		return
	}
	obj, err := s.store.Put(ctx, storage.ObjectName(art.Name), art.ContentType, art.Data)
	if err != nil {
		s.abortWithError(c, "download", err)
		return
	}
	u, err := s.store.URL(ctx, obj.Name, s.opts.URLExpiry)
	if err != nil {
		s.abortWithError(c, "download", err)
		return
	}
	ok(c, linkResponse{Name: obj.Name, URL: u})
}

func (s *Server) exportXLSX(c *gin.Context) {
	data, customer, err := s.ctrl.Report()
	if err != nil {
		s.abortWithError(c, "export", err)
		return
	}
	b, err := s.exporter.ReportXLSX(c.Request.Context(), data, customer)
	if err != nil {
		s.abortWithError(c, "export", err)
		return
	}
	attachment(c, export.FileName(customer), export.ContentType, b)
}

func (s *Server) reset(c *gin.Context) {
	s.ctrl.Reset()
	ok(c, s.ctrl.Snapshot())
}

func (s *Server) dismissError(c *gin.Context) {
	s.ctrl.DismissError()
	ok(c, s.ctrl.Snapshot())
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	c.Data(http.StatusOK, contentType, data)
}
