package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"transferdesk/internal/cases/models"
	dErrors "transferdesk/pkg/domain-errors"
)

// Columns recognized in an import CSV header. Destinations are given as
// destination_1..destination_7 with matching destination_type_N columns.
const (
	colPersonnelCode  = "personnel_code"
	colNationalID     = "national_id"
	colFirstName      = "first_name"
	colLastName       = "last_name"
	colPhone          = "phone"
	colEmploymentType = "employment_type"
	colGender         = "gender"
	colYears          = "years_of_service"
	colFieldCode      = "field_code"
	colFieldTitle     = "field_title"
	colScore          = "approved_score"
	colWorkPlace      = "current_work_place_code"
	colSource         = "source_district_code"
	colLegacyStatus   = "legacy_status"
	colClauses        = "approved_clauses"
	colRequestStatus  = "request_status"
)

var requiredColumns = []string{colPersonnelCode, colFirstName, colLastName, colGender, colFieldCode, colWorkPlace, colSource}

// ReadCSV turns a CSV document with a header row into create requests.
// Numeric cells that do not parse fail the whole file with the row number.
func ReadCSV(r io.Reader) ([]models.CreateRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, dErrors.New(dErrors.CodeValidation, "csv is empty")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid csv header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "csv is missing column %s", col)
		}
	}

	var rows []models.CreateRequest
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid csv at line %d", line))
		}
		row, err := parseRecord(index, record)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "line %d: %v", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(index map[string]int, record []string) (models.CreateRequest, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	req := models.CreateRequest{
		PersonnelCode:        get(colPersonnelCode),
		NationalID:           get(colNationalID),
		FirstName:            get(colFirstName),
		LastName:             get(colLastName),
		Phone:                get(colPhone),
		EmploymentType:       get(colEmploymentType),
		Gender:               get(colGender),
		FieldCode:            get(colFieldCode),
		FieldTitle:           get(colFieldTitle),
		CurrentWorkPlaceCode: get(colWorkPlace),
		SourceDistrictCode:   get(colSource),
		ApprovedClauses:      get(colClauses),
		RequestStatus:        get(colRequestStatus),
	}
	if v := get(colYears); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%s is not a number", colYears)
		}
		req.YearsOfService = n
	}
	if v := get(colScore); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%s is not a number", colScore)
		}
		req.ApprovedScore = &f
	}
	if v := get(colLegacyStatus); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%s is not a number", colLegacyStatus)
		}
		req.LegacyStatus = &n
	}
	for n := 1; n <= models.MaxDestinationPriorities; n++ {
		code := get(fmt.Sprintf("destination_%d", n))
		if code == "" {
			continue
		}
		transferType := get(fmt.Sprintf("destination_type_%d", n))
		if transferType == "" {
			transferType = string(models.TransferPermanent)
		}
		req.DestinationPriorities = append(req.DestinationPriorities, models.DestinationInput{Code: code, TransferType: transferType})
	}
	return req, nil
}
