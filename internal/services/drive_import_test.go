package services

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/drive/v3"

	"photo-album/internal/models"
	"photo-album/internal/utils/exiftest"
)

type fakeDrive struct {
	files     []*drive.File
	content   map[string][]byte
	downloads int
}

func (d *fakeDrive) ListFilesInFolder(_ context.Context, _ string) ([]*drive.File, error) {
	return d.files, nil
}

func (d *fakeDrive) DownloadBytes(_ context.Context, id string) ([]byte, error) {
	d.downloads++
	data, ok := d.content[id]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func TestDriveImporterImportFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fake := &fakeDrive{
		files: []*drive.File{
			{Id: "1", Name: "Beach Day.jpg", MimeType: "image/jpeg", Description: "sandy"},
			{Id: "2", Name: "notes.txt", MimeType: "text/plain"},
			{Id: "3", Name: "broken.jpg", MimeType: "image/jpeg"},
		},
		content: map[string][]byte{
			"1": exiftest.JPEGWithDate("2022:08:01 07:00:00"),
		},
	}

	importer := NewDriveImporter(fake, f.gallery, "folder")

	stats, err := importer.ImportFolder(ctx)
	if err == nil {
		t.Error("ImportFolder() expected an error for the failed download")
	}
	if stats.Imported != 1 || stats.Skipped != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v, want 1 imported, 1 skipped, 1 error", stats)
	}

	record, err := f.metadata.Get(ctx, "Beach Day.jpg")
	if err != nil {
		t.Fatalf("imported record missing: %v", err)
	}
	if record.Name != "Beach Day" || record.Description != "sandy" || record.OriginalDate != "2022-08-01 07:00:00" {
		t.Errorf("record = %+v, want name/description from Drive and EXIF date", *record)
	}

	// A second pass skips what is already in the gallery.
	fake.files = fake.files[:1]
	fake.downloads = 0
	stats, err = importer.ImportFolder(ctx)
	if err != nil {
		t.Fatalf("second ImportFolder() error: %v", err)
	}
	if stats.Skipped != 1 || fake.downloads != 0 {
		t.Errorf("second pass stats = %+v with %d downloads, want 1 skipped and no downloads", stats, fake.downloads)
	}
}

func TestDriveImporterSkipsConvertedHEIC(t *testing.T) {
	f := newFixture(t)
	f.gallery.opts.ConvertHEIC = true
	ctx := context.Background()

	// An earlier pass stored IMG_0001.HEIC as a JPEG.
	if err := f.metadata.Put(ctx, "IMG_0001.jpg", &models.ImageRecord{Name: "IMG_0001", UploadDate: "2024-01-01 00:00:00"}); err != nil {
		t.Fatal(err)
	}

	fake := &fakeDrive{
		files: []*drive.File{
			{Id: "h1", Name: "IMG_0001.HEIC", MimeType: "image/heic"},
		},
		content: map[string][]byte{"h1": []byte("heic bytes")},
	}
	importer := NewDriveImporter(fake, f.gallery, "folder")

	stats, err := importer.ImportFolder(ctx)
	if err != nil {
		t.Fatalf("ImportFolder() error: %v", err)
	}
	if stats.Skipped != 1 || fake.downloads != 0 {
		t.Errorf("stats = %+v with %d downloads, want 1 skipped and no downloads", stats, fake.downloads)
	}

	record, err := f.metadata.Get(ctx, "IMG_0001.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if record.UploadDate != "2024-01-01 00:00:00" {
		t.Errorf("UploadDate = %q, the record was rewritten", record.UploadDate)
	}
}

func TestDriveImporterUsesDriveCaptureTime(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		meta *drive.FileImageMediaMetadata
		want string
	}{
		{
			name: "no EXIF, Drive time",
			data: exiftest.PlainJPEG(4, 4),
			meta: &drive.FileImageMediaMetadata{Time: "2021:07:04 12:00:00"},
			want: "2021-07-04 12:00:00",
		},
		{
			name: "EXIF wins over Drive time",
			data: exiftest.JPEGWithDate("2022:08:01 07:00:00"),
			meta: &drive.FileImageMediaMetadata{Time: "2021:07:04 12:00:00"},
			want: "2022-08-01 07:00:00",
		},
		{
			name: "unparseable Drive time",
			data: exiftest.PlainJPEG(4, 4),
			meta: &drive.FileImageMediaMetadata{Time: "yesterday"},
			want: models.UnknownDate,
		},
		{
			name: "no metadata at all",
			data: exiftest.PlainJPEG(4, 4),
			want: models.UnknownDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			fake := &fakeDrive{
				files:   []*drive.File{{Id: "1", Name: "photo.jpg", MimeType: "image/jpeg", ImageMediaMetadata: tt.meta}},
				content: map[string][]byte{"1": tt.data},
			}

			if _, err := NewDriveImporter(fake, f.gallery, "folder").ImportFolder(ctx); err != nil {
				t.Fatalf("ImportFolder() error: %v", err)
			}

			record, err := f.metadata.Get(ctx, "photo.jpg")
			if err != nil {
				t.Fatal(err)
			}
			if record.OriginalDate != tt.want {
				t.Errorf("OriginalDate = %q, want %q", record.OriginalDate, tt.want)
			}
		})
	}
}
