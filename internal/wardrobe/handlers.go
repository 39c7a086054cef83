package wardrobe

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/catalog"
)

func userID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func itemID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// ListItems handles GET /wardrobe with optional source, folder, favorites and
// search filters.
func ListItems(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := ListFilter{Limit: 50}
		if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
			f.Limit = v
		}
		if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
			f.Offset = v
		}
		if src := c.QueryParam("source"); src != "" {
			p := Provenance(src)
			if !p.Valid() {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown source filter"})
			}
			f.Source = p
		}
		f.Folder = c.QueryParam("folder")
		f.FavoritesOnly = c.QueryParam("favorites") == "true"
		f.Search = c.QueryParam("search")

		items, err := store.List(c.Request().Context(), userID(c), f)
		if err != nil {
			log.Println("list wardrobe:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list wardrobe"})
		}
		if items == nil {
			items = []Item{}
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}
}

// GetItem handles GET /wardrobe/:id.
func GetItem(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := itemID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
		}
		it, err := store.GetByID(c.Request().Context(), id)
		if errors.Is(err, ErrNotFound) || (err == nil && it.UserID != userID(c)) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		if err != nil {
			log.Println("get wardrobe item:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load item"})
		}
		return c.JSON(http.StatusOK, it)
	}
}

type copyRequest struct {
	ProductID int64 `json:"product_id"`
	CopyFiles bool  `json:"copy_files"`
}

// CopyFromProduct handles POST /wardrobe/from-product.
func CopyFromProduct(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req copyRequest
		if err := c.Bind(&req); err != nil || req.ProductID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
		}

		it, err := svc.CopyFromListing(c.Request().Context(), userID(c), req.ProductID, req.CopyFiles)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not available"})
		case errors.Is(err, ErrWardrobeFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "wardrobe item limit reached"})
		case err != nil:
			log.Println("copy product to wardrobe:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add item"})
		}
		return c.JSON(http.StatusCreated, it)
	}
}

type fromGenerationRequest struct {
	GenerationID int64 `json:"generation_id"`
}

// SaveGeneration handles POST /wardrobe/from-generation.
func SaveGeneration(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req fromGenerationRequest
		if err := c.Bind(&req); err != nil || req.GenerationID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "generation_id is required"})
		}

		it, err := svc.SaveFromGeneration(c.Request().Context(), userID(c), req.GenerationID)
		switch {
		case errors.Is(err, ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your generation"})
		case errors.Is(err, ErrWardrobeFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "wardrobe item limit reached"})
		case err != nil:
			log.Println("save generation to wardrobe:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add item"})
		}
		return c.JSON(http.StatusCreated, it)
	}
}

// UploadItem handles POST /wardrobe/upload as multipart form data with a
// name, optional description/folder, and one or more image files.
func UploadItem(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.FormValue("name")
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}

		form, err := c.MultipartForm()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form expected"})
		}
		headers := form.File["images"]
		if len(headers) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one image is required"})
		}

		var uploads []Upload
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read uploaded file"})
			}
			defer f.Close()
			uploads = append(uploads, Upload{Filename: h.Filename, Reader: f})
		}

		it, err := svc.CreateFromUpload(c.Request().Context(), userID(c),
			name, c.FormValue("description"), c.FormValue("folder"), uploads)
		switch {
		case errors.Is(err, ErrWardrobeFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "wardrobe item limit reached"})
		case err != nil:
			log.Println("upload wardrobe item:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save item"})
		}
		return c.JSON(http.StatusCreated, it)
	}
}

// UpdateItem handles PATCH /wardrobe/:id.
func UpdateItem(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := itemID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
		}

		it, err := store.GetByID(c.Request().Context(), id)
		if errors.Is(err, ErrNotFound) || (err == nil && it.UserID != userID(c)) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		if err != nil {
			log.Println("load wardrobe item:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load item"})
		}

		var upd ItemUpdate
		if err := c.Bind(&upd); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if err := store.Update(c.Request().Context(), id, upd); err != nil {
			log.Println("update wardrobe item:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update item"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "item updated"})
	}
}

// DeleteItem handles DELETE /wardrobe/:id.
func DeleteItem(svc *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := itemID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
		}

		err = svc.Delete(c.Request().Context(), userID(c), id)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		case err != nil:
			log.Println("delete wardrobe item:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete item"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "item deleted"})
	}
}

// ListFolders handles GET /wardrobe/folders.
func ListFolders(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		folders, err := store.Folders(c.Request().Context(), userID(c))
		if err != nil {
			log.Println("list wardrobe folders:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list folders"})
		}
		if folders == nil {
			folders = []string{}
		}
		return c.JSON(http.StatusOK, echo.Map{"folders": folders})
	}
}

// GetStats handles GET /wardrobe/stats.
func GetStats(store *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := store.StatsForUser(c.Request().Context(), userID(c))
		if err != nil {
			log.Println("wardrobe stats:", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load stats"})
		}
		return c.JSON(http.StatusOK, st)
	}
}
