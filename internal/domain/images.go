package domain

import (
	"fmt"
	"strings"
)

// ImagePrefix is the storage prefix under which an inspection's images live.
func ImagePrefix(inspectionID string) string {
	return "inspections/" + inspectionID + "/"
}

// ParseImagePath splits inspections/<inspection_id>/<file name> into its
// inspection id and file name.
func ParseImagePath(p string) (inspectionID, name string, err error) {
	parts := strings.Split(p, "/")
	if len(parts) != 3 || parts[0] != "inspections" || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid image path %q", p)
	}
	if parts[2] == "." || parts[2] == ".." || parts[1] == "." || parts[1] == ".." {
		return "", "", fmt.Errorf("invalid image path %q", p)
	}
	return parts[1], parts[2], nil
}

// ImageFromObject builds the Image view of a stored object.
func ImageFromObject(obj Object, url string) (Image, error) {
	inspectionID, name, err := ParseImagePath(obj.Key)
	if err != nil {
		return Image{}, err
	}
	img := Image{ID: name, InspectionID: inspectionID, Path: obj.Key, URL: url}
	if !obj.LastModified.IsZero() {
		t := obj.LastModified
		img.CreatedAt = &t
	}
	return img, nil
}
