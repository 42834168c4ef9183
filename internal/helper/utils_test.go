package helper

import (
	"bytes"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashContent(t *testing.T) {
	a := HashContent([]byte("same bytes"))
	b := HashContent([]byte("same bytes"))
	c := HashContent([]byte("other bytes"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("  \n\t"))
	assert.Equal(t, 5, CountWords("Revenue grew 10% in\nQ1."))
}

func TestTempWorkspace(t *testing.T) {
	dir, cleanup, err := TempWorkspace("helper-test-")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dir+"/file.txt", []byte("x"), 0o644))

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	cleanup()
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]int{"chunks": 2})
	assert.Equal(t, "{\n  \"chunks\": 2\n}\n", buf.String())

	buf.Reset()
	PrettyPrint(&buf, make(chan int))
	assert.Empty(t, buf.String())
}
