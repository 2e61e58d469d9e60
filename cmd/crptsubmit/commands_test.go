/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/acronis/go-crptapi/internal/registrystub"
)

const testDocumentJSON = `{
	"doc_type": "LP_INTRODUCE_GOODS",
	"owner_inn": "7700000001",
	"participant_inn": "7700000001",
	"producer_inn": "7700000002",
	"production_date": "2024-03-05",
	"products": [{"tnved_code": "6401100000", "uit_code": "0104600000000000"}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadDocument(t *testing.T) {
	doc, err := readDocument(writeFile(t, "doc.json", testDocumentJSON))
	require.NoError(t, err)
	require.NotEmpty(t, doc.DocID)
	require.Equal(t, "7700000001", doc.OwnerInn)
	require.Len(t, doc.Products, 1)

	_, err = readDocument(writeFile(t, "doc.json", `{"doc_type": "LP_INTRODUCE_GOODS"}`))
	require.ErrorContains(t, err, "owner_inn")

	_, err = readDocument(writeFile(t, "doc.json", `[`))
	require.ErrorContains(t, err, "decode document")
}

func TestReadSignature(t *testing.T) {
	sig, err := readSignature("c2ln", "")
	require.NoError(t, err)
	require.Equal(t, "c2ln", sig)

	sig, err = readSignature("", writeFile(t, "doc.sig", "c2lnbmF0dXJl\n"))
	require.NoError(t, err)
	require.Equal(t, "c2lnbmF0dXJl", sig)

	_, err = readSignature("c2ln", "doc.sig")
	require.Error(t, err)
}

func TestApp_Submit(t *testing.T) {
	registry, baseURL := newTestStub(t, nil)
	t.Setenv("CRPT_CRPT_BASEURL", baseURL)
	t.Setenv("CRPT_THROTTLE_LIMIT", "3")
	t.Setenv("CRPT_LOG_LEVEL", "error")

	docPath := writeFile(t, "doc.json", testDocumentJSON)
	err := newApp().Run([]string{"crptsubmit", "--env-file", "", "submit",
		"--file", docPath, "--signature", "c2ln", "--copies", strconv.Itoa(7)})
	require.NoError(t, err)
	require.Len(t, registry.Admissions(), 7)
	require.LessOrEqual(t, registry.MaxConcurrent(), 3)
}

func TestApp_SubmitFails(t *testing.T) {
	_, baseURL := newTestStub(t, func(cfg *registrystub.Config) { cfg.FailureRatio = 1 })
	t.Setenv("CRPT_CRPT_BASEURL", baseURL)
	t.Setenv("CRPT_LOG_LEVEL", "error")

	err := newApp().Run([]string{"crptsubmit", "--env-file", "", "submit",
		"--file", writeFile(t, "doc.json", testDocumentJSON), "--copies", "2"})
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.ExitCode())
}
