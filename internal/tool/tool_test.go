package tool

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestGenerateTlsCertificate(t *testing.T) {
	dir := t.TempDir()
	keyFilename := filepath.Join(dir, "key.pem")
	certFilename := filepath.Join(dir, "cert.pem")

	exists, err := IsFileExists(certFilename)
	if err != nil || exists {
		t.Fatalf("expected no cert file, got %v %v", exists, err)
	}

	if err := GenerateTlsCertificate("test", "Test Server", keyFilename, certFilename, []string{"localhost"}); err != nil {
		t.Fatal(err)
	}

	for _, filename := range []string{keyFilename, certFilename} {
		exists, err := IsFileExists(filename)
		if err != nil || !exists {
			t.Fatalf("expected %s to exist, got %v %v", filename, exists, err)
		}
	}
	if _, err := tls.LoadX509KeyPair(certFilename, keyFilename); err != nil {
		t.Fatalf("generated pair is not usable: %v", err)
	}

	if exists, _ := IsFileExists(dir); exists {
		t.Fatal("a directory is not a file")
	}
}
