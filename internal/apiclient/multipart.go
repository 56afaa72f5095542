package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/jwalitptl/patient-companion/internal/model"
)

type formFile struct {
	field string
	file  *model.File
}

// Multipart is an ordered multipart/form-data body. Each endpoint that takes
// files has its own builder below returning one of these.
type Multipart struct {
	fields [][2]string
	files  []formFile
}

func (m *Multipart) Field(name, value string) *Multipart {
	m.fields = append(m.fields, [2]string{name, value})
	return m
}

// OptionalField adds name only when value is not blank.
func (m *Multipart) OptionalField(name, value string) *Multipart {
	if strings.TrimSpace(value) == "" {
		return m
	}
	return m.Field(name, value)
}

func (m *Multipart) File(name string, f *model.File) *Multipart {
	if f.Present() {
		m.files = append(m.files, formFile{field: name, file: f})
	}
	return m
}

// Fields returns the text parts by name; a repeated name keeps its last value.
func (m *Multipart) Fields() map[string]string {
	out := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		out[f[0]] = f[1]
	}
	return out
}

// FileFields returns the names of the file parts in order.
func (m *Multipart) FileFields() []string {
	out := make([]string, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f.field)
	}
	return out
}

func (m *Multipart) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	for _, f := range m.files {
		contentType := f.file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.file.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.field, err)
		}
		if _, err := part.Write(f.file.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func DoctorApplicationForm(app model.DoctorApplication) *Multipart {
	m := &Multipart{}
	m.Field("firstName", app.FirstName).
		Field("lastName", app.LastName).
		Field("phone", app.Phone).
		Field("dateOfBirth", app.DateOfBirth).
		Field("gender", app.Gender).
		Field("address", app.Address).
		Field("specialty", app.Specialty).
		Field("licenseNumber", app.LicenseNumber).
		Field("yearsOfExperience", strconv.Itoa(app.YearsOfExperience)).
		Field("consultationFee", strconv.FormatFloat(app.ConsultationFee, 'f', 2, 64)).
		OptionalField("hospitalAffiliation", app.HospitalAffiliation).
		OptionalField("bio", app.Bio).
		Field("agreeToTerms", strconv.FormatBool(app.AgreeToTerms)).
		Field("confirmAccuracy", strconv.FormatBool(app.ConfirmAccuracy))
	for _, q := range app.Qualifications {
		m.OptionalField("qualifications", q)
	}
	return m.File("licenseDocument", app.LicenseDocument).
		File("degreeCertificate", app.DegreeCertificate).
		File("idDocument", app.IDDocument).
		File("profilePhoto", app.ProfilePhoto)
}

func KYCForm(sub model.KYCSubmission) *Multipart {
	m := &Multipart{}
	return m.Field("documentType", string(sub.DocumentType)).
		Field("documentNumber", sub.DocumentNumber).
		File("idImage", sub.IDImage).
		File("selfieImage", sub.SelfieImage).
		File("addressProofImage", sub.AddressProofImage)
}

func ProfileCompletionForm(p model.ProfileCompletion) *Multipart {
	m := &Multipart{}
	return m.Field("phone", p.Phone).
		Field("dateOfBirth", p.DateOfBirth).
		Field("gender", p.Gender).
		Field("address", p.Address).
		OptionalField("city", p.City).
		OptionalField("country", p.Country).
		Field("emergencyContactName", p.EmergencyName).
		Field("emergencyContactPhone", p.EmergencyPhone).
		OptionalField("emergencyContactRelationship", p.EmergencyRelation).
		File("profilePhoto", p.ProfilePhoto)
}
