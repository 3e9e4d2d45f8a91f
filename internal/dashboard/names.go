package dashboard

import "site-defects/internal/models"

// AttachNames fills the vendor and category names of defects listed without
// their relations. Names already present are kept.
func AttachNames(defects []models.Defect, vendors []models.Vendor, categories []models.Category) {
	vendorNames := make(map[int]string, len(vendors))
	for _, v := range vendors {
		vendorNames[v.ID] = v.Name
	}
	categoryNames := make(map[int]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}
	for i := range defects {
		d := &defects[i]
		if d.VendorName == "" && d.AssignedVendorID != nil {
			d.VendorName = vendorNames[*d.AssignedVendorID]
		}
		if d.CategoryName == "" && d.CategoryID != nil {
			d.CategoryName = categoryNames[*d.CategoryID]
		}
	}
}
