package controller

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SeakMengs/DocSign/internal/auth"
	"github.com/SeakMengs/DocSign/internal/constant"
	"github.com/SeakMengs/DocSign/internal/mailer"
	"github.com/SeakMengs/DocSign/internal/model"
	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/SeakMengs/DocSign/pkg/docsign"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/mattetti/filebuffer"
	"gorm.io/gorm"
)

type DocumentController struct {
	*baseController
}

const (
	ErrDocumentIdRequired = "document id is required"
	ErrDocumentNotFound   = "document not found"
	ErrDocumentForbidden  = "you do not have permission to access this document"
)

type listDocumentsRequest struct {
	Page     uint `form:"page" binding:"omitempty,gte=1"`
	PageSize uint `form:"pageSize" binding:"omitempty,gte=1"`
}

type signDocumentRequest struct {
	SignatureData          string           `json:"signatureData" binding:"required,imageDataURL"`
	SignaturePosition      docsign.Position `json:"signaturePosition"`
	PDFPageDimensions      docsign.Size     `json:"pdfPageDimensions"`
	PageNumber             int              `json:"pageNumber" binding:"omitempty,gte=1"`
	SignatureType          string           `json:"signatureType" binding:"required,signatureMode"`
	SignatureFileExtension string           `json:"signatureFileExtension" binding:"omitempty,max=10"`
}

func (r signDocumentRequest) toPlacementRequest(documentId string) *docsign.PlacementRequest {
	page := r.PageNumber
	if page < 1 {
		page = 1
	}

	return &docsign.PlacementRequest{
		DocumentID:             documentId,
		PageNumber:             page,
		SignatureData:          r.SignatureData,
		SignaturePosition:      r.SignaturePosition,
		PDFPageDimensions:      r.PDFPageDimensions,
		SignatureType:          docsign.SourceMode(r.SignatureType),
		SignatureFileExtension: r.SignatureFileExtension,
	}
}

type updateDocumentRequest struct {
	Status string `json:"status" binding:"required,docStatus"`
}

// getOwnedDocument loads the document for the authenticated user and writes the failure response
// itself; a nil document means the handler should return.
func (dc DocumentController) getOwnedDocument(ctx *gin.Context) (*auth.JWTPayload, *model.Document) {
	documentId := ctx.Params.ByName("id")
	if documentId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Document ID is required", util.GenerateErrorMessages(errors.New(ErrDocumentIdRequired), "id"), nil)
		return nil, nil
	}

	user, err := dc.getAuthUser(ctx)
	if err != nil {
		dc.app.Logger.Errorf("Failed to get auth user: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return nil, nil
	}

	doc, err := dc.app.Repository.Document.GetById(ctx, nil, documentId, user.ID)
	if err == nil {
		return user, doc
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get document", util.GenerateErrorMessages(err), nil)
		return nil, nil
	}

	// Distinguish someone else's document from a missing one.
	exists, err := dc.app.Repository.Document.Exists(ctx, nil, documentId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get document", util.GenerateErrorMessages(err), nil)
		return nil, nil
	}
	if exists {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrDocumentForbidden, util.GenerateErrorMessages(errors.New(ErrDocumentForbidden), "id"), nil)
		return nil, nil
	}

	util.ResponseFailed(ctx, http.StatusNotFound, "Document not found", util.GenerateErrorMessages(errors.New(ErrDocumentNotFound), "id"), nil)
	return nil, nil
}

func (dc DocumentController) respondDocument(ctx *gin.Context, documentId, userId string) {
	doc, err := dc.app.Repository.Document.GetById(ctx, nil, documentId, userId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get document", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"document": doc.ToResponse(),
	})
}

func (dc DocumentController) ListDocuments(ctx *gin.Context) {
	user, err := dc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	var params listDocumentsRequest
	if err := ctx.ShouldBindQuery(&params); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	page, pageSize := util.NormalizePage(params.Page, params.PageSize)

	docs, total, err := dc.app.Repository.Document.ListByUser(ctx, nil, user.ID, page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to list documents", util.GenerateErrorMessages(err), nil)
		return
	}

	out := make([]docsign.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ToResponse())
	}

	util.ResponseSuccess(ctx, gin.H{
		"documents": out,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
		"totalPage": util.CalculateTotalPage(total, pageSize),
	})
}

func (dc DocumentController) UploadDocument(ctx *gin.Context) {
	user, err := dc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	fileHeader, err := ctx.FormFile(constant.DocumentFormField)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No document uploaded", util.GenerateErrorMessages(errors.New("document file is required"), constant.DocumentFormField), nil)
		return
	}

	maxSize := dc.app.Config.Document.MaxUploadSize
	if fileHeader.Size > maxSize {
		util.ResponseFailed(ctx, http.StatusBadRequest, "File too large", util.GenerateErrorMessages(fmt.Errorf("document must be at most %d bytes", maxSize), constant.DocumentFormField), nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to read document", util.GenerateErrorMessages(err), nil)
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	f.Close()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to read document", util.GenerateErrorMessages(err), nil)
		return
	}

	if mt := mimetype.Detect(data); !mt.Is(constant.DocumentContentType) {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid file type", util.GenerateErrorMessages(fmt.Errorf("expected a pdf, got %s", mt.String()), constant.DocumentFormField), nil)
		return
	}

	if _, err := docsign.PdfPageSize(filebuffer.New(data), 1); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid PDF", util.GenerateErrorMessages(err, constant.DocumentFormField), nil)
		return
	}

	originalName := util.SanitizeFileName(fileHeader.Filename)
	if originalName == "" {
		originalName = "document.pdf"
	}
	uniqueName, err := util.AddUniquePrefixToFileName(originalName)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to upload document", util.GenerateErrorMessages(err), nil)
		return
	}

	info, err := util.UploadBytesToS3(ctx, data, &util.FileUploadOptions{
		ObjectName:  util.ToDocumentObjectName(user.ID, uniqueName),
		ContentType: constant.DocumentContentType,
		Bucket:      dc.app.Config.Minio.BUCKET,
		S3:          dc.app.S3,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to upload file", util.GenerateErrorMessages(err), nil)
		return
	}

	doc := &model.Document{
		Name:         strings.TrimSuffix(originalName, filepath.Ext(originalName)),
		OriginalName: originalName,
		FileType:     constant.DocumentContentType,
		FileSize:     int64(len(data)),
		Status:       docsign.DocumentStatusPending,
		UserID:       user.ID,
		File: model.File{
			FileName:       originalName,
			UniqueFileName: info.Key,
			BucketName:     info.Bucket,
			Size:           info.Size,
		},
	}

	if _, err := dc.app.Repository.Document.Create(ctx, nil, doc); err != nil {
		// delete the object if the document could not be recorded
		if rmErr := doc.File.Delete(ctx, dc.app.S3); rmErr != nil {
			dc.app.Logger.Errorf("Failed to remove orphaned document object %s: %v", info.Key, rmErr)
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create document", util.GenerateErrorMessages(err), nil)
		return
	}

	dc.app.Logger.Infof("User %s uploaded document %s", user.ID, doc.ID)
	util.ResponseSuccessWithStatus(ctx, http.StatusCreated, gin.H{
		"document": doc.ToResponse(),
	})
}

func (dc DocumentController) GetDocument(ctx *gin.Context) {
	_, doc := dc.getOwnedDocument(ctx)
	if doc == nil {
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"document": doc.ToResponse(),
	})
}

// ViewDocument streams the stored PDF bytes.
func (dc DocumentController) ViewDocument(ctx *gin.Context) {
	_, doc := dc.getOwnedDocument(ctx)
	if doc == nil {
		return
	}

	data, err := doc.File.Read(ctx, dc.app.S3)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to read document", util.GenerateErrorMessages(err), nil)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.OriginalName))
	ctx.Data(http.StatusOK, constant.DocumentContentType, data)
}

// SignDocument stamps the signature image onto the stored PDF and replaces it.
func (dc DocumentController) SignDocument(ctx *gin.Context) {
	user, doc := dc.getOwnedDocument(ctx)
	if doc == nil {
		return
	}

	var body signDocumentRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	req := body.toPlacementRequest(doc.ID)
	if req.PDFPageDimensions.IsZero() {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(errors.New("pdfPageDimensions must be positive"), "pdfPageDimensions"), nil)
		return
	}

	tempDir, err := util.MkdirTemp("docsign_sign_*")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Error creating temporary directory", util.GenerateErrorMessages(err), nil)
		return
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "in.pdf")
	outPath := filepath.Join(tempDir, "out.pdf")

	if err := doc.File.DownloadToLocal(ctx, dc.app.S3, inPath); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Error downloading PDF file", util.GenerateErrorMessages(err), nil)
		return
	}

	pdfBytes, err := os.ReadFile(inPath)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Error reading PDF file", util.GenerateErrorMessages(err), nil)
		return
	}

	pageSize, err := docsign.PdfPageSize(bytes.NewReader(pdfBytes), req.PageNumber)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid page", util.GenerateErrorMessages(err, "pageNumber"), nil)
		return
	}

	placement, err := docsign.ToPdfPlacement(req, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid placement", util.GenerateErrorMessages(err, "signaturePosition"), nil)
		return
	}

	sigPath, err := docsign.WriteSignatureImage(tempDir, req.SignatureData, req.SignatureFileExtension)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid signature", util.GenerateErrorMessages(err, "signatureData"), nil)
		return
	}

	if err := docsign.ApplySignatureToPdf(inPath, outPath, sigPath, placement); err != nil {
		dc.app.Logger.Errorf("Failed to apply signature to document %s: %v", doc.ID, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to apply signature", util.GenerateErrorMessages(err), nil)
		return
	}

	info, err := util.UploadFileToS3ByPath(ctx, outPath, &util.FileUploadOptions{
		ObjectName:  doc.File.UniqueFileName,
		ContentType: constant.DocumentContentType,
		Bucket:      doc.File.BucketName,
		S3:          dc.app.S3,
	})
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to store signed document", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := dc.app.Repository.Document.MarkSigned(ctx, nil, doc, info.Size, time.Now().UTC()); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update document", util.GenerateErrorMessages(err), nil)
		return
	}

	dc.app.Logger.Infof("User %s signed document %s on page %d", user.ID, doc.ID, placement.Page)
	dc.notifySigned(user, doc.Name, placement.Page)
	dc.respondDocument(ctx, doc.ID, user.ID)
}

// notifySigned mails the owner in the background; delivery failures are only logged.
func (dc DocumentController) notifySigned(user *auth.JWTPayload, documentName string, page int) {
	if dc.app.Mailer == nil || user.Email == "" {
		return
	}

	data := mailer.DocumentSignedData{
		AppName:      util.GetAppName(),
		Username:     user.Name,
		DocumentName: documentName,
		PageNumber:   page,
		SignedAt:     time.Now().UTC().Format("2006-01-02 15:04 MST"),
	}

	go func() {
		if _, err := dc.app.Mailer.Send(mailer.DOCUMENT_SIGNED_TEMPLATE, user.Name, user.Email, data); err != nil {
			dc.app.Logger.Warnf("Failed to send signed notification for %q to %s: %v", documentName, user.Email, err)
		}
	}()
}

func (dc DocumentController) UpdateDocument(ctx *gin.Context) {
	user, doc := dc.getOwnedDocument(ctx)
	if doc == nil {
		return
	}

	var body updateDocumentRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := dc.app.Repository.Document.UpdateStatus(ctx, nil, doc.ID, docsign.DocumentStatus(body.Status)); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update document", util.GenerateErrorMessages(err), nil)
		return
	}

	dc.respondDocument(ctx, doc.ID, user.ID)
}

func (dc DocumentController) DeleteDocument(ctx *gin.Context) {
	_, doc := dc.getOwnedDocument(ctx)
	if doc == nil {
		return
	}

	if err := dc.app.Repository.Document.Delete(ctx, nil, doc); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to delete document", util.GenerateErrorMessages(err), nil)
		return
	}

	if err := doc.File.Delete(ctx, dc.app.S3); err != nil {
		// Intentionally not return failed because even if delete file fail, it doesn't affect the system.
		dc.app.Logger.Errorf("failed to delete document file from storage with err: %v", err)
	}

	util.ResponseSuccess(ctx, nil)
}
