package service

import (
	"strings"

	"github.com/lekhapal/shg-digitizer/dto"
)

const tableListPrompt = `You are an OCR engine extracting every table from a scanned SHG register.
Return STRICT JSON only, with no markdown fences and no commentary.

Schema:
{"tables": [{"title": "string", "columns": ["string"], "rows": [["string"]]}]}

Rules:
- Every visually separate grid or tabular section is its own table.
- Use the heading printed above a table as its title. Without one, write a short descriptive title.
- columns holds the headers exactly as printed.
- rows holds one array per row and every cell is a string.
- Keep Hindi and other scripts exactly as written. Do not translate.
- Write numbers plainly, e.g. 60090 instead of 60,090.
- Use "" for blank or missing cells so every row has one cell per column.`

const memberLoanPrompt = `You are an OCR engine extracting the loan record of each SHG member from a scanned register.
Return STRICT JSON only, with no markdown fences and no commentary.

Schema:
{"tables": [{"title": "member name", "columns": ["string"], "rows": [["string"]]}]}

Rules:
- Each member's loan section is a separate table titled with that member's name.
- columns holds the headers of that member's table exactly as printed.
- rows holds one array per row and every cell is a string.
- Keep Hindi and other scripts exactly as written. Do not translate.
- Write numbers plainly.
- Use "" for blank or missing cells so every row has one cell per column.`

const profilePrompt = `You are a document parser for SHG profile sheets. Extract the profile fields and, when present,
the member list and the balance details.
Return STRICT JSON only, with no markdown fences and no commentary.

Schema:
{
  "shgProfile": {
    "shgName": "string",
    "dateOfFormation": "DD/MM/YY or DD/MM/YYYY",
    "meetingFrequency": "string",
    "villageName": "string",
    "gramPanchayatName": "string",
    "nameOfVo": "string",
    "nameOfClf": "string",
    "blockName": "string",
    "districtName": "string",
    "joiningDateInVo": "DD/MM/YY or DD/MM/YYYY"
  },
  "members": [
    {"sNo": "string", "name": "string", "id": "string", "dateOfJoining": "string", "dateOfLeaving": "string"}
  ],
  "balanceDetails": {"label as printed": "value"}
}

Rules:
- Use exactly these keys for shgProfile and members.
- Join values split across lines into one string.
- Keep Hindi text and numbers exactly as written.
- Use "" for any field that is missing. Omit members or balanceDetails when the sheet has none.`

const imagePrompt = `Extract all tables from this image and return ONLY pure JSON, with no markdown fences.

Schema: {"tables": [{"title": "string", "columns": ["string"], "rows": [["string"]]}]}

Every cell must be a string. Use "" for blank cells. Keep the original script of every value.`

const documentPrompt = `Extract all tables from this document and return ONLY pure JSON, with no markdown fences.

Schema: {"tables": [{"title": "string", "columns": ["string"], "rows": [["string"]]}]}

Every cell must be a string. Use "" for blank cells. Keep the original script of every value.`

// PromptFor selects the extraction prompt for a document type. Without a
// document type the prompt depends only on whether the upload is an image.
func PromptFor(docType, mimeType string) string {
	switch docType {
	case dto.DocTypeProfile:
		return profilePrompt
	case dto.DocTypeMemberLoanRepayment:
		return memberLoanPrompt
	case dto.DocTypeReceipts, dto.DocTypeExpenditure, dto.DocTypeSavings,
		dto.DocTypeShgLoanRepayment, dto.DocTypeOthers:
		return tableListPrompt
	case "":
		if strings.HasPrefix(mimeType, "image/") {
			return imagePrompt
		}
		return documentPrompt
	}
	return tableListPrompt
}
