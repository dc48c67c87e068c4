package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/trafficlens/congestion/pkg/store"
	"github.com/trafficlens/congestion/pkg/utils"
)

//Reports gives access to archived analysis runs
type Reports interface {
	LatestRun(video string) (*store.Run, error)
	RunSummary(runID string) (*store.Summary, error)
}

//Deps are the collaborators the router hands requests to
type Deps struct {
	//StartAnalysis begins analyzing an uploaded video in the background
	StartAnalysis func(videoName string) error
	Reports       Reports

	//Live serves the websocket of live frame results
	Live http.Handler
}

func SetRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	//serve html pages to client
	r.Static("/client", viper.GetString("frontend.static-files-path"))
	r.StaticFile("/", path.Join(viper.GetString("frontend.static-files-path"), "home_page/dist/index.html"))

	if deps.Live != nil {
		r.GET("/ws/live", gin.WrapH(deps.Live))
	}

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/ReadyVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(viper.GetString("directory.ready")); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/UserUploadsVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(viper.GetString("directory.source")); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/Play", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		analyzed := ctx.Query("analyzed")
		if analyzed != "true" && analyzed != "false" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		dir := viper.GetString("directory.source")
		if analyzed == "true" {
			dir = viper.GetString("directory.ready")
		}
		videoPath := path.Join(dir, filepath.Base(videoName)+"."+viper.GetString("video.prod_format"))

		if _, err := os.Stat(videoPath); err != nil {
			if os.IsNotExist(err) {
				ctx.Status(http.StatusNotFound)
			} else {
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		ctx.Header("Content-Type", "video/mp4")
		http.ServeFile(ctx.Writer, ctx.Request, videoPath)
	})

	apiRoutes.GET("/Report", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		if deps.Reports == nil {
			ctx.Status(http.StatusServiceUnavailable)
			return
		}

		run, err := deps.Reports.LatestRun(videoName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				ctx.Status(http.StatusNotFound)
			} else {
				log.Printf("api/Report: Could not get run of '%s', got '%v'", videoName, err)
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		summary, err := deps.Reports.RunSummary(run.ID)
		if err != nil {
			log.Printf("api/Report: Could not summarize run '%s', got '%v'", run.ID, err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		ctx.JSON(http.StatusOK, summary)
	})

	apiRoutes.POST("/Upload", func(ctx *gin.Context) {
		file, fHeader, err := ctx.Request.FormFile("video")
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		defer file.Close()

		fileName := filepath.Base(fHeader.Filename)

		if existNames, err := utils.ListDir(viper.GetString("directory.source")); err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		} else if utils.InSlice(fileName, existNames) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		log.Printf("api/Upload: Recived new file: name - '%s', size - %v Bytes", fileName, fHeader.Size)

		fileBytes, err := io.ReadAll(file)
		if err != nil {
			log.Printf("api/Upload: Could not read request's body, got '%v'", err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		srcFilePath := path.Join(viper.GetString("directory.source"), fileName)

		if err = os.WriteFile(srcFilePath, fileBytes, 0444); err != nil {
			log.Printf("api/Upload: Could not write '%s' file, got '%v'", srcFilePath, err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		if deps.StartAnalysis != nil {
			if err := deps.StartAnalysis(fileName); err != nil {
				log.Printf("api/Upload: Could not start analysis of '%s', got '%v'", fileName, err)
				//remove the upload so the same name can be uploaded again
				if err := os.Remove(srcFilePath); err != nil {
					log.Printf("api/Upload: Could not remove '%s', got '%v'", srcFilePath, err)
				}
				ctx.Status(http.StatusInternalServerError)
				return
			}
		}

		ctx.JSON(http.StatusAccepted, gin.H{"name": fileName})
	})

	return r
}
