package client

const (
	endpointChat   = "/api/chat"   // POST, JSON body
	endpointUpload = "/api/upload" // POST, multipart body

	uploadFieldName = "file"
)
