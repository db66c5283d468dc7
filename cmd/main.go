package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/loopfz/gadgeto/tonic"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/handler"
	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/jobs"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	api "github.com/vitrine-motors/vitrine-api/pkg/catalog_api"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/database"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/repositories"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/storage"
)

const apiVersion = "1.0.0"

func invalidParamsFromBinding(err error, sample any) []problem.InvalidParam {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []problem.InvalidParam{{Name: "body", Reason: err.Error()}}
	}

	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	out := make([]problem.InvalidParam, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		// StructField -> json tag
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
				name = strings.Split(tag, ",")[0]
			}
		}
		out = append(out, problem.InvalidParam{
			Name:   name,
			Reason: humanReason(fe),
		})
	}
	return out
}

func humanReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "é obrigatório"
	case "url":
		return "deve ser uma URL válida (ex.: https://…)"
	default:
		return fe.Error()
	}
}

func init() {
	tonic.SetErrorHook(func(c *gin.Context, err error) (int, interface{}) {
		// Bind/validate errors → 400 with the offending fields.
		var be tonic.BindError
		if errors.As(err, &be) || isValidationErr(err) {
			invalids := invalidParamsFromBinding(err, models.UpdateProfileInput{})
			apiErr := problem.NewBadRequest("body", "Entrada inválida", invalids...)
			c.Header("Content-Type", "application/problem+json")
			return apiErr.Status, apiErr
		}

		// Our own APIError → pass-through.
		if apiErr, ok := err.(problem.APIError); ok {
			c.Header("Content-Type", "application/problem+json")
			return apiErr.Status, apiErr
		}

		// Everything else → 500.
		internal := problem.NewInternalServerError(err.Error())
		c.Header("Content-Type", "application/problem+json")
		return internal.Status, internal
	})
}

func isValidationErr(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func main() {
	_ = godotenv.Load()

	dbcon, err := database.ConnStrFromEnv()
	if err != nil {
		log.Fatalf("configuração do banco incompleta: %v", err)
	}
	db, err := database.Connect(dbcon)
	if err != nil {
		log.Fatalf("sem conexão com o banco: %v", err)
	}

	store, err := storage.NewS3Store(context.Background(), storage.S3Config{
		Endpoint:   os.Getenv("S3_ENDPOINT"),
		Region:     os.Getenv("S3_REGION"),
		Bucket:     os.Getenv("S3_BUCKET"),
		AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		SecretKey:  os.Getenv("S3_SECRET_KEY"),
		PublicBase: os.Getenv("S3_PUBLIC_BASE"),
	})
	if err != nil {
		log.Fatalf("sem conexão com o storage: %v", err)
	}

	vehicleRepo := repositories.NewVehicleRepository(db)
	adminRepo := repositories.NewAdminUserRepository(db)

	vehicleService := services.NewVehicleService(vehicleRepo, store,
		os.Getenv("S3_BUCKET"), os.Getenv("S3_PUBLIC_BASE"))
	accountService := services.NewAccountService(adminRepo, os.Getenv("SESSION_SECRET"))
	leadService := services.NewLeadService(
		os.Getenv("LEADS_WEBHOOK_URL"),
		os.Getenv("LEADS_WEBHOOK_AUTH"),
		store,
	)

	jobs.ScheduleOrphanScan(context.Background(), vehicleService)

	router := api.NewRouter(api.RouterConfig{
		APIVersion:    apiVersion,
		SessionSecret: os.Getenv("SESSION_SECRET"),
		Vehicles:      handler.NewVehiclesAPIController(vehicleService),
		Account:       handler.NewAccountAPIController(accountService),
		Leads:         handler.NewLeadsAPIController(leadService),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "1337"
	}
	log.Println("Server is running on port " + port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
